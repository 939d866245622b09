//go:build !windows

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"pii-redactor/internal/core/types"
	"sort"
	"strings"
	"sync"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

const defaultPretrainedTokenizer = "Qwen/Qwen2.5-0.5B"

var idx2tag = []string{
	"ADDRESS", "CARD_NUMBER", "COMPANY", "CREDIT_SCORE", "DATE",
	"EMAIL", "ETHNICITY", "GENDER", "ID_NUMBER", "LICENSE_PLATE",
	"LOCATION", "NAME", "O", "PHONENUMBER", "SERVICE_CODE",
	"SEXUAL_ORIENTATION", "SSN", "URL", "VIN",
}

// Only the model tags that correspond to entity categories are kept; the
// structured identifiers are left to the pattern matchers.
var tagToCategory = map[string]types.Category{
	"NAME":     types.Person,
	"COMPANY":  types.Organization,
	"LOCATION": types.GPE,
	"ADDRESS":  types.Location,
}

// InitOnnxRuntime loads the onnxruntime shared library once per process.
func InitOnnxRuntime(dylib string) error {
	initOnce.Do(func() {
		if dylib == "" {
			initErr = fmt.Errorf("ONNX_RUNTIME_DYLIB must be set")
			return
		}
		ort.SetSharedLibraryPath(dylib)
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

func DestroyOnnxRuntime() error {
	return ort.DestroyEnvironment()
}

func loadCRF(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mat [][]float32
	if err := json.Unmarshal(data, &mat); err != nil {
		return nil, err
	}
	return mat, nil
}

func viterbi(emissions [][]float32, transitions [][]float32, seqLen int) []int {
	N := len(transitions)
	dp := make([][]float32, seqLen)
	bp := make([][]int, seqLen)
	for t := 0; t < seqLen; t++ {
		dp[t] = make([]float32, N)
		bp[t] = make([]int, N)
	}
	for j := 0; j < N; j++ {
		dp[0][j] = emissions[0][j]
	}
	for t := 1; t < seqLen; t++ {
		for j := 0; j < N; j++ {
			maxScore := float32(-1e9)
			var maxPrev int
			for k := 0; k < N; k++ {
				s := dp[t-1][k] + transitions[k][j] + emissions[t][j]
				if s > maxScore {
					maxScore = s
					maxPrev = k
				}
			}
			dp[t][j] = maxScore
			bp[t][j] = maxPrev
		}
	}
	seq := make([]int, seqLen)
	bestTag := 0
	bestScore := float32(-1e9)
	for j := 0; j < N; j++ {
		if dp[seqLen-1][j] > bestScore {
			bestScore = dp[seqLen-1][j]
			bestTag = j
		}
	}
	seq[seqLen-1] = bestTag
	for t := seqLen - 1; t > 0; t-- {
		seq[t-1] = bp[t][seq[t]]
	}
	return seq
}

// joinTokens lays the sentence out as single-space separated words and returns
// the start offset of every word in the joined string.
func joinTokens(sentence []Token) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(sentence))
	for i, tok := range sentence {
		if i > 0 {
			b.WriteByte(' ')
		}
		starts[i] = b.Len()
		b.WriteString(tok.Text)
	}
	return b.String(), starts
}

// wordIndex maps a subword start offset in the joined string back to the
// sentence token containing it, or -1 for special tokens and separators.
func wordIndex(sentence []Token, starts []int, offset tokenizers.Offset) int {
	start, end := int(offset[0]), int(offset[1])
	if start == end {
		return -1
	}
	w := sort.Search(len(starts), func(i int) bool { return starts[i] > start }) - 1
	if w < 0 || start >= starts[w]+len(sentence[w].Text) {
		return -1
	}
	return w
}

type OnnxEntityClassifier struct {
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	tokenizer   *tokenizers.Tokenizer
	transitions [][]float32
}

func LoadOnnxClassifier(modelDir string) (*OnnxEntityClassifier, error) {
	if modelDir == "" {
		return nil, fmt.Errorf("model dir must be set for onnx classifier")
	}

	onnxBytes, err := os.ReadFile(filepath.Join(modelDir, "model.onnx"))
	if err != nil {
		return nil, fmt.Errorf("read onnx model: %w", err)
	}

	trans, err := loadCRF(filepath.Join(modelDir, "transitions.json"))
	if err != nil {
		return nil, fmt.Errorf("CRF load error: %w", err)
	}
	if len(trans) != len(idx2tag) {
		return nil, fmt.Errorf("CRF has %d tags, expected %d", len(trans), len(idx2tag))
	}

	var tk *tokenizers.Tokenizer
	if tokenizerPath := filepath.Join(modelDir, "tokenizer.json"); fileExists(tokenizerPath) {
		tk, err = tokenizers.FromFile(tokenizerPath)
	} else {
		tk, err = tokenizers.FromPretrained(defaultPretrainedTokenizer)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenizer load: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		onnxBytes,
		[]string{"input_ids"},
		[]string{"emissions"},
		nil,
	)
	if err != nil {
		tk.Close()
		return nil, fmt.Errorf("failed to create in-memory session: %w", err)
	}

	return &OnnxEntityClassifier{
		session:     session,
		tokenizer:   tk,
		transitions: trans,
	}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (m *OnnxEntityClassifier) emissions(ids []int64) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	B, L, N := int64(1), int64(len(ids)), int64(len(m.transitions))
	inT, err := ort.NewTensor(ort.NewShape(B, L), ids)
	if err != nil {
		return nil, err
	}
	defer inT.Destroy()
	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(B, L, N))
	if err != nil {
		return nil, err
	}
	defer outT.Destroy()
	if err := m.session.Run([]ort.Value{inT}, []ort.Value{outT}); err != nil {
		return nil, fmt.Errorf("session run error: %w", err)
	}

	// the output tensor is destroyed on return, so copy the rows out
	flat := outT.GetData()
	seq := make([][]float32, L)
	for t := int64(0); t < L; t++ {
		seq[t] = append([]float32(nil), flat[t*N:(t+1)*N]...)
	}
	return seq, nil
}

func (m *OnnxEntityClassifier) Classify(ctx context.Context, sentence []Token) ([]types.Category, error) {
	labels := make([]types.Category, len(sentence))
	if len(sentence) == 0 {
		return labels, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	joined, starts := joinTokens(sentence)
	enc := m.tokenizer.EncodeWithOptions(joined, false, tokenizers.WithReturnAllAttributes())
	if len(enc.IDs) == 0 {
		return labels, nil
	}

	ids := make([]int64, len(enc.IDs))
	for i, v := range enc.IDs {
		ids[i] = int64(v)
	}

	seq, err := m.emissions(ids)
	if err != nil {
		return nil, err
	}

	oIdx := -1
	for i, tag := range idx2tag {
		if tag == "O" {
			oIdx = i
			break
		}
	}
	if oIdx < 0 {
		return nil, fmt.Errorf("O tag not found in model tags")
	}

	for t := range seq {
		seq[t][oIdx] *= 0.7
	}

	tagsIdx := viterbi(seq, m.transitions, len(seq))

	// a word takes the first non-O tag among its subwords
	tagged := make([]bool, len(sentence))
	for sub, j := range tagsIdx {
		if sub >= len(enc.Offsets) || j < 0 || j >= len(idx2tag) || idx2tag[j] == "O" {
			continue
		}
		w := wordIndex(sentence, starts, enc.Offsets[sub])
		if w < 0 || tagged[w] {
			continue
		}
		tagged[w] = true
		labels[w] = tagToCategory[idx2tag[j]]
	}

	return labels, nil
}

func (m *OnnxEntityClassifier) Release() {
	m.session.Destroy()
	m.tokenizer.Close()
}
