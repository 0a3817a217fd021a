package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", MsgInvalid},
		{"too short", "Ab1!", MsgTooShort},
		{"seven characters in ten bytes", "aA1!ééé", MsgTooShort},
		{"multibyte counted as characters", "aA1!éééé", ""},
		{"no lowercase", "ABCDEFG1!", MsgNoLower},
		{"eight chars without uppercase", "abcdefg1", MsgNoUpper},
		{"no digit", "Abcdefgh!", MsgNoDigit},
		{"no symbol", "Abcdefg1", MsgNoSymbol},
		{"whitespace", "Abc def1!", MsgWhitespace},
		{"tab", "Abcdef1!\t", MsgWhitespace},
		{"valid", "Abcdef1!", ""},
		{"valid with colon", "Str0ng:pass", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.secret))
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	// no lowercase, no uppercase, no symbol and a space: only lowercase is reported
	assert.Equal(t, MsgNoLower, Validate("1234 5678"))
	// short and without symbol: length is checked first
	assert.Equal(t, MsgTooShort, Validate("abc"))
}

func TestGenerate(t *testing.T) {
	pool := letters + digits + generatorSymbols

	s := Generate(0)
	assert.Len(t, s, GeneratedLength)

	s = Generate(32)
	assert.Len(t, s, 32)
	for _, r := range s {
		assert.True(t, strings.ContainsRune(pool, r), "unexpected character %q", r)
	}

	assert.NotEqual(t, Generate(32), Generate(32))
}
