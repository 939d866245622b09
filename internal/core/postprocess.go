package core

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ssnLayoutRegex = regexp.MustCompile(`^[0-9]{3}[ .-]?[0-9]{2}[ .-]?[0-9]{4}$`)

	phoneExtensionRegex = regexp.MustCompile(`(?i)[ \t]*(?:ext\.?|x)[ \t]*[0-9]{2,5}$`)
)

// Validators receive the full text and the match bounds so they can check the
// characters surrounding a match, not only the match itself.
type matchValidator func(text string, start, end int) bool

func isValidPhone(text string, start, end int) bool {
	if digitBefore(text, start) || digitAfter(text, end) {
		return false
	}
	number := phoneExtensionRegex.ReplaceAllString(text[start:end], "")
	if ssnLayoutRegex.MatchString(number) {
		return false
	}
	digits := stripNonDigits(number)
	return len(digits) >= 7 && len(digits) <= 15
}

func isValidSSN(text string, start, end int) bool {
	if digitBefore(text, start) || digitAfter(text, end) {
		return false
	}
	digits := stripNonDigits(text[start:end])
	if len(digits) != 9 {
		return false
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

// isValidEmail accepts a digit right after the TLD as a boundary. The TLD
// pattern already takes every trailing ASCII letter.
func isValidEmail(text string, start, end int) bool {
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsLetter(r) || r == '_' {
			return false
		}
	}
	local, domain, ok := strings.Cut(text[start:end], "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}

func digitBefore(text string, start int) bool {
	if start == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:start])
	return unicode.IsDigit(r)
}

func digitAfter(text string, end int) bool {
	if end >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsDigit(r)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
