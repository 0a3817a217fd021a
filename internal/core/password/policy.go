// Package password holds the secret strength rules and the one-time secret
// generator used by password recovery.
package password

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Symbols is the set of characters accepted by the symbol rule.
const Symbols = "_@!()&+$?*=%#;:-"

// generatorSymbols is the symbol pool of Generate.
const generatorSymbols = "!@#$%&*()"

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"

	MinLength       = 8
	GeneratedLength = 12
)

const (
	MsgInvalid    = "Invalid password"
	MsgTooShort   = "Password must contain at least 8 characters"
	MsgNoLower    = "Password must contain at least one lowercase letter"
	MsgNoUpper    = "Password must contain at least one uppercase letter"
	MsgNoDigit    = "Password must contain at least one number"
	MsgNoSymbol   = "Password must contain at least one of the following symbols: _ @ ! ( ) & + $ ? * - = % # ; :"
	MsgWhitespace = "Whitespace is not allowed in passwords"
)

// Validate returns the reason the secret is rejected, or "" when it passes.
// Length counts characters, not bytes. Rules run in a fixed order and the
// first failure wins; whitespace is only reported when every other rule passed.
func Validate(secret string) string {
	if secret == "" {
		return MsgInvalid
	}
	if utf8.RuneCountInString(secret) < MinLength {
		return MsgTooShort
	}
	if !strings.ContainsAny(secret, "abcdefghijklmnopqrstuvwxyz") {
		return MsgNoLower
	}
	if !strings.ContainsAny(secret, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return MsgNoUpper
	}
	if !strings.ContainsAny(secret, digits) {
		return MsgNoDigit
	}
	if !strings.ContainsAny(secret, Symbols) {
		return MsgNoSymbol
	}
	if strings.IndexFunc(secret, unicode.IsSpace) >= 0 {
		return MsgWhitespace
	}
	return ""
}

// Generate returns a random secret of the given length (GeneratedLength when
// length <= 0). Characters are drawn independently, with replacement, from a
// shuffled pool of letters, digits and generatorSymbols.
//
// The source is not cryptographic; use it only for one-time secrets that are
// sent to the owner out of band.
func Generate(length int) string {
	if length <= 0 {
		length = GeneratedLength
	}
	pool := []byte(letters + digits + generatorSymbols)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]byte, length)
	for i := range out {
		out[i] = pool[rand.IntN(len(pool))]
	}
	return string(out)
}
