package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// KeyVersion is mixed into every key. Bump it when the meaning of a cached
// file changes so old artifacts stop matching.
const KeyVersion = "v1"

// KeyLength is the length of a Key in hex characters.
const KeyLength = 16

// KeyFor returns the fingerprint of text rendered with params.
//
// Every field is written as <len>:<value>| so no combination of values can
// produce the same input as another.
func KeyFor(text string, params tts.Params) Key {
	var b strings.Builder
	for _, field := range []string{
		KeyVersion,
		params.Engine.String(),
		params.Model,
		params.Language,
		params.Voice(),
		strconv.Itoa(params.Rate),
		text,
	} {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
		b.WriteByte('|')
	}

	hash := sha256.Sum256([]byte(b.String()))
	return Key(hex.EncodeToString(hash[:KeyLength/2]))
}

// RequestKey returns the fingerprint of req.
func RequestKey(req tts.Request) Key {
	return KeyFor(req.Text, req.Params)
}
