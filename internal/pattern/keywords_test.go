package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindKeywordsWordStart(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		keywords []string
		want     []string
	}{
		{name: "prefix of longer word", body: "Rs.500 debited", keywords: []string{"debit"}, want: []string{"debit"}},
		{name: "inside a word", body: "global markets", keywords: []string{"bal"}, want: nil},
		{name: "after punctuation", body: "Avbl Bal:100", keywords: []string{"bal"}, want: []string{"bal"}},
		{name: "case insensitive", body: "CREDITED to A/c", keywords: []string{"credited", "a/c"}, want: []string{"credited", "a/c"}},
		{name: "multi word", body: "your current balance is", keywords: []string{"current balance"}, want: []string{"current balance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindKeywords(tt.body, tt.keywords))
		})
	}
}

func TestNearAny(t *testing.T) {
	body := strings.ToLower("Rs.500 debited from your account. Call 1800123456 for help")
	kws := []string{"debited"}

	assert.True(t, NearAny(body, kws, 3, 6, 50))
	start := strings.Index(body, "1800")
	assert.True(t, NearAny(body, kws, start, start+10, 50))
	assert.False(t, NearAny(body, kws, start, start+10, 10))
}

func TestContainsWord(t *testing.T) {
	kws := []string{"pin", "code"}

	assert.True(t, ContainsWord("Your PIN is 1234", kws))
	assert.True(t, ContainsWord("code: 998877", kws))
	assert.False(t, ContainsWord("Rs.500 debited for PINE LABS purchase", kws))
	assert.False(t, ContainsWord("spent at CODECADEMY", kws))
	assert.True(t, ContainsAny("spent at CODECADEMY", kws))
}

func TestFoldKeepsOffsets(t *testing.T) {
	tests := []string{
		"Rs.500 DEBITED at CAFÉ",
		"İSTANBUL debited Rs.500",
		"bad \xff byte DEBITED",
		"ẞ Straße DEBITED",
	}

	for _, body := range tests {
		folded := Fold(body)
		assert.Len(t, folded, len(body))
		pos := KeywordPositions(folded, "debited")
		if assert.Len(t, pos, 1, body) {
			assert.Equal(t, "DEBITED", body[pos[0]:pos[0]+len("debited")])
		}
	}
	assert.Equal(t, "rs.500 debited at café", Fold("Rs.500 DEBITED at CAFÉ"))
}
