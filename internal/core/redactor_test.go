package core

import (
	"context"
	"errors"
	"fmt"
	"pii-redactor/internal/core/types"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookupClassifier labels tokens by exact text.
type lookupClassifier struct {
	labels map[string]types.Category
	err    error
	short  bool

	mu    sync.Mutex
	calls int
}

func (c *lookupClassifier) Classify(_ context.Context, sentence []Token) ([]types.Category, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	labels := make([]types.Category, len(sentence))
	for i, tok := range sentence {
		labels[i] = c.labels[tok.Text]
	}
	if c.short && len(labels) > 0 {
		labels = labels[1:]
	}
	return labels, nil
}

func (c *lookupClassifier) Release() {}

type memorySource map[string]string

func (m memorySource) Extract(_ context.Context, path string) (string, error) {
	text, ok := m[path]
	if !ok {
		return "", fmt.Errorf("no such input %s", path)
	}
	return text, nil
}

type memorySink struct {
	mu      sync.Mutex
	written map[string]string
	err     error
}

func (m *memorySink) Write(_ context.Context, path, text string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[path] = text
	return nil
}

func newTestRedactor(t *testing.T, classifier EntityClassifier) *Redactor {
	t.Helper()
	r, err := NewRedactor(classifier, nil, nil)
	require.NoError(t, err)
	return r
}

var testLabels = map[string]types.Category{
	"John":   types.Person,
	"Smith":  types.Person,
	"Acme":   types.Organization,
	"Corp":   types.Organization,
	"Boston": types.GPE,
	"Main":   types.Location,
	"Street": types.Location,
}

func TestClean(t *testing.T) {
	r := newTestRedactor(t, &lookupClassifier{labels: testLabels})

	tests := []struct {
		name string
		text string
		opts []Option
		want string
	}{
		{
			name: "names and phone",
			text: "John Smith's phone is 555-123-4567.",
			want: "XXXXX's phone is XXXXX.",
		},
		{
			name: "all categories",
			text: "John works at Acme Corp in Boston, mail john@acme.com or SSN 123-45-6789.",
			want: "XXXXX works at XXXXX in XXXXX, mail XXXXX or SSN XXXXX.",
		},
		{
			name: "entities only",
			text: "John: 555-123-4567",
			opts: []Option{WithNumberCategories()},
			want: "XXXXX: 555-123-4567",
		},
		{
			name: "numbers only",
			text: "John: 555-123-4567",
			opts: []Option{WithEntityCategories()},
			want: "John: XXXXX",
		},
		{
			name: "single entity category",
			text: "John Smith of Acme Corp",
			opts: []Option{WithEntityCategories("ORGANIZATION")},
			want: "John Smith of XXXXX",
		},
		{
			name: "bare ssn opt in",
			text: "SSN 123456789",
			opts: []Option{WithBareSSN()},
			want: "SSN XXXXX",
		},
		{
			name: "bare ssn default off",
			text: "SSN 123456789",
			want: "SSN 123456789",
		},
		{
			name: "phone inside rejected match",
			text: "ids 123-45-6789 555-1234",
			want: "ids XXXXX XXXXX",
		},
		{
			name: "phone after bare ssn",
			text: "168244880 008-6575 ",
			opts: []Option{WithBareSSN()},
			want: "XXXXX XXXXX ",
		},
		{
			name: "email glued to ssn",
			text: "mail a@b.com123-45-6789 now",
			want: "mail XXXXXXXXXX now",
		},
		{
			name: "email glued to phone",
			text: "mail jon@example.co555-123-4567",
			want: "mail XXXXXXXXXX",
		},
		{
			name: "no pii",
			text: "nothing to see here",
			want: "nothing to see here",
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clean, err := r.Clean(context.Background(), tc.text, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, clean)

			again, err := r.Clean(context.Background(), clean, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, clean, again)
		})
	}
}

func TestRedact_PatternBeatsEntity(t *testing.T) {
	labels := map[string]types.Category{"Main": types.Location, "Street": types.Location, "555-123-4567": types.Location}
	r := newTestRedactor(t, &lookupClassifier{labels: labels})

	result, err := r.Redact(context.Background(), "Main Street 555-123-4567")
	require.NoError(t, err)
	assert.Equal(t, "Main Street XXXXX", result.Text)
	assert.Equal(t, map[types.Category]int{types.Phone: 1}, result.Counts)

	// with phones disabled the entity span is no longer shadowed
	result, err = r.Redact(context.Background(), "Main Street 555-123-4567", WithNumberCategories("EMAIL"))
	require.NoError(t, err)
	assert.Equal(t, "XXXXX", result.Text)
	assert.Equal(t, map[types.Category]int{types.Location: 1}, result.Counts)
}

func TestRedact_ClassifierSkipped(t *testing.T) {
	classifier := &lookupClassifier{labels: testLabels}
	r := newTestRedactor(t, classifier)

	_, err := r.Redact(context.Background(), "John 555-123-4567", WithEntityCategories())
	require.NoError(t, err)
	_, err = r.Redact(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, classifier.calls)
}

func TestRedact_ClassifierFailure(t *testing.T) {
	for name, classifier := range map[string]*lookupClassifier{
		"error":          {labels: testLabels, err: errors.New("model crashed")},
		"label mismatch": {labels: testLabels, short: true},
	} {
		t.Run(name, func(t *testing.T) {
			r := newTestRedactor(t, classifier)
			clean, err := r.Clean(context.Background(), "John Smith: 555-123-4567. Boston.")
			require.NoError(t, err)
			assert.Equal(t, "John Smith: XXXXX. Boston.", clean)
		})
	}
}

func TestRedact_NilClassifier(t *testing.T) {
	r := newTestRedactor(t, nil)
	clean, err := r.Clean(context.Background(), "John at a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "John at XXXXX", clean)
}

func TestRedact_ConfigurationError(t *testing.T) {
	r := newTestRedactor(t, &lookupClassifier{labels: testLabels})

	_, err := r.Clean(context.Background(), "John", WithEntityCategories("PHONE"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, EntityGroup, cfgErr.Group)
}

func TestCleanFile(t *testing.T) {
	source := memorySource{"in.txt": "Call John at 555-123-4567"}
	sink := &memorySink{written: map[string]string{}}

	r, err := NewRedactor(&lookupClassifier{labels: testLabels}, source, sink)
	require.NoError(t, err)

	require.NoError(t, r.CleanFile(context.Background(), "in.txt", "out.txt"))
	assert.Equal(t, "Call XXXXX at XXXXX", sink.written["out.txt"])

	require.NoError(t, r.CleanFile(context.Background(), "in.txt", "out2.txt", WithEntityCategories()))
	assert.Equal(t, "Call John at XXXXX", sink.written["out2.txt"])

	err = r.CleanFile(context.Background(), "missing.txt", "out3.txt")
	assert.EqualError(t, err, "no such input missing.txt")
	assert.NotContains(t, sink.written, "out3.txt")

	err = r.CleanFile(context.Background(), "in.txt", "out4.txt", WithNumberCategories("NAME"))
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCleanFile_WriteError(t *testing.T) {
	writeErr := errors.New("disk full")
	r, err := NewRedactor(nil, memorySource{"in.txt": "x"}, &memorySink{err: writeErr})
	require.NoError(t, err)

	err = r.CleanFile(context.Background(), "in.txt", "out.txt")
	assert.ErrorIs(t, err, writeErr)
}

func TestCleanFile_NotConfigured(t *testing.T) {
	r := newTestRedactor(t, nil)
	assert.Error(t, r.CleanFile(context.Background(), "in.txt", "out.txt"))
}

func TestCleanFiles(t *testing.T) {
	source := memorySource{}
	var jobs []FileJob
	for i := 0; i < 10; i++ {
		in := fmt.Sprintf("in-%d.txt", i)
		source[in] = fmt.Sprintf("John #%d: 555-123-456%d", i, i)
		jobs = append(jobs, FileJob{Input: in, Output: fmt.Sprintf("out-%d.txt", i)})
	}
	jobs = append(jobs, FileJob{Input: "missing.txt", Output: "out-missing.txt"})

	sink := &memorySink{written: map[string]string{}}
	r, err := NewRedactor(&lookupClassifier{labels: testLabels}, source, sink)
	require.NoError(t, err)

	completed, err := r.CleanFiles(context.Background(), jobs, 3)
	require.NoError(t, err)

	var failed []string
	var succeeded []string
	for task := range completed {
		if task.Error != nil {
			failed = append(failed, task.Result.Job.Input)
			continue
		}
		succeeded = append(succeeded, task.Result.Job.Output)
		assert.Equal(t, map[types.Category]int{types.Person: 1, types.Phone: 1}, task.Result.Counts)
	}

	sort.Strings(succeeded)
	assert.Len(t, succeeded, 10)
	assert.Equal(t, []string{"missing.txt"}, failed)
	assert.Equal(t, "XXXXX #3: XXXXX", sink.written["out-3.txt"])

	_, err = r.CleanFiles(context.Background(), jobs, 3, WithEntityCategories("SSN"))
	assert.Error(t, err)
}

func TestClean_Properties(t *testing.T) {
	labels := map[string]types.Category{
		"Ron":        types.Person,
		"Jon":        types.Person,
		"Jonathan":   types.Person,
		"McJonathan": types.Person,
	}
	r := newTestRedactor(t, &lookupClassifier{labels: labels})
	ctx := context.Background()

	clean, err := r.Clean(ctx, "Ron & Jon's", WithEntityCategories("PERSON", "ORGANIZATION"))
	require.NoError(t, err)
	assert.Equal(t, "XXXXX & XXXXX's", clean)

	clean, err = r.Clean(ctx, "call 800-123-4567", WithNumberCategories())
	require.NoError(t, err)
	assert.Equal(t, "call 800-123-4567", clean)

	clean, err = r.Clean(ctx, "call 800-123-4567", WithNumberCategories("PHONE"))
	require.NoError(t, err)
	assert.Equal(t, "call XXXXX", clean)

	result, err := r.Redact(ctx, "id 123-45-0987")
	require.NoError(t, err)
	assert.Equal(t, "id XXXXX", result.Text)
	assert.Equal(t, map[types.Category]int{types.SSN: 1}, result.Counts)

	clean, err = r.Clean(ctx, "id 123-45-098")
	require.NoError(t, err)
	assert.Equal(t, "id 123-45-098", clean)

	result, err = r.Redact(ctx, "Jonathan McJonathan was part of it")
	require.NoError(t, err)
	assert.Equal(t, "XXXXX was part of it", result.Text)
	assert.Len(t, result.Spans, 1)
}

func FuzzClean(f *testing.F) {
	seeds := []string{
		"",
		"John: 555-123-4567, SSN 123-45-6789, jane@example.com",
		"ids 123-45-6789 555-1234",
		"168244880 008-6575 ",
		"mail a@b.com123-45-6789 now",
		"mail jon@example.co555-123-4567",
		"1234-555-1234 and 9555-123-45678",
	}
	for _, seed := range seeds {
		f.Add(seed, false)
		f.Add(seed, true)
	}

	r, err := NewRedactor(nil, nil, nil)
	require.NoError(f, err)

	f.Fuzz(func(t *testing.T, text string, bareSSN bool) {
		var opts []Option
		if bareSSN {
			opts = append(opts, WithBareSSN())
		}

		clean, err := r.Clean(context.Background(), text, opts...)
		require.NoError(t, err)

		again, err := r.Clean(context.Background(), clean, opts...)
		require.NoError(t, err)
		if again != clean {
			t.Errorf("clean is not idempotent for %q: %q then %q", text, clean, again)
		}
	})
}
