package pattern

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FindKeywords returns the keywords present in body, in list order.
// Matching is case-insensitive and a keyword must begin at a word start,
// so "bal" matches "Bal:" but not "global".
func FindKeywords(body string, keywords []string) []string {
	if len(keywords) == 0 || body == "" {
		return nil
	}
	lower := Fold(body)
	var found []string
	for _, kw := range keywords {
		kw = Fold(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if len(KeywordPositions(lower, kw)) > 0 {
			found = append(found, kw)
		}
	}
	return found
}

// ContainsAny reports whether any keyword starts a word in body.
func ContainsAny(body string, keywords []string) bool {
	lower := Fold(body)
	for _, kw := range keywords {
		kw = Fold(strings.TrimSpace(kw))
		if kw != "" && len(KeywordPositions(lower, kw)) > 0 {
			return true
		}
	}
	return false
}

// ContainsWord reports whether any keyword occurs in body as a whole word,
// so "pin" matches "PIN: 1234" but not "PINNACLE".
func ContainsWord(body string, keywords []string) bool {
	lower := Fold(body)
	for _, kw := range keywords {
		kw = Fold(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, pos := range KeywordPositions(lower, kw) {
			if atWordEnd(lower, pos+len(kw)) {
				return true
			}
		}
	}
	return false
}

// Fold lower-cases s without changing its byte length, so offsets found in
// the result are valid in s. Runes whose lower case encodes to a different
// length, and invalid bytes, are kept as they are.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		if l := unicode.ToLower(r); utf8.RuneLen(l) == size {
			b.WriteRune(l)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// KeywordPositions returns the byte offsets where kw starts a word in
// lower. Both arguments must already be folded with Fold.
func KeywordPositions(lower, kw string) []int {
	var out []int
	for offset := 0; offset < len(lower); {
		i := strings.Index(lower[offset:], kw)
		if i < 0 {
			break
		}
		pos := offset + i
		if atWordStart(lower, pos) {
			out = append(out, pos)
		}
		offset = pos + 1
	}
	return out
}

// NearAny reports whether a keyword starts within window bytes of the span
// [start, end).
func NearAny(lower string, keywords []string, start, end, window int) bool {
	for _, kw := range keywords {
		kw = Fold(kw)
		for _, pos := range KeywordPositions(lower, kw) {
			kwEnd := pos + len(kw)
			if kwEnd <= start && start-kwEnd <= window {
				return true
			}
			if pos >= end && pos-end <= window {
				return true
			}
			if pos < end && kwEnd > start {
				return true
			}
		}
	}
	return false
}

func atWordStart(s string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func atWordEnd(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
