package lib

import (
	"strings"
	"unicode"
)

// ContentFilter rejects text containing blocked words. Matching is done on
// whole words, case-insensitively.
type ContentFilter struct {
	blocked map[string]struct{}
}

func NewContentFilter(words []string) *ContentFilter {
	blocked := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			blocked[word] = struct{}{}
		}
	}
	return &ContentFilter{blocked: blocked}
}

// DefaultContentFilter is used when no word list is configured.
func DefaultContentFilter() *ContentFilter {
	return NewContentFilter([]string{"spam", "scam", "nsfw"})
}

func (f *ContentFilter) IsClean(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		if _, ok := f.blocked[word]; ok {
			return false
		}
	}
	return true
}

// Check returns an InvalidArgument error naming the offending field.
func (f *ContentFilter) Check(field string, text string) error {
	if f.IsClean(text) {
		return nil
	}
	return InvalidArgumentError(field + " contains inappropriate language")
}
