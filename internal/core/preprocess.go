package core

import (
	"pii-redactor/internal/core/utils"
	"regexp"
)

// Token is a unit of classifier input. Start and End are byte offsets into the
// original text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

var (
	// Possessive clitics are split from the word they attach to, so "Jon's"
	// becomes "Jon" and "'s".
	tokenRe = regexp.MustCompile(`(?i)['’]s\b|[\p{L}\p{M}\p{N}]+(?:[-_][\p{L}\p{M}\p{N}]+)*|\S`)

	possessiveRe = regexp.MustCompile(`(?i)^['’]s?$`)
)

func Tokenize(text string) []Token {
	matches := tokenRe.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, match := range matches {
		tokens = append(tokens, Token{Text: text[match[0]:match[1]], Start: match[0], End: match[1]})
	}
	return tokens
}

func isSentenceEnd(tok Token) bool {
	switch tok.Text {
	case ".", "!", "?":
		return true
	}
	return false
}

func isPossessive(tok Token) bool {
	return possessiveRe.MatchString(tok.Text)
}

// SplitSentences groups tokens into classifier-sized sentences.
func SplitSentences(tokens []Token) [][]Token {
	ranges := utils.SplitSentences(len(tokens), utils.DefaultSentenceLength, func(i int) bool {
		return isSentenceEnd(tokens[i])
	})

	sentences := make([][]Token, 0, len(ranges))
	for _, r := range ranges {
		sentences = append(sentences, tokens[r[0]:r[1]])
	}
	return sentences
}
