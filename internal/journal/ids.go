package journal

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// NewOpID returns op-<suffix> where suffix is 8 chars of lowercase base32 (40 bits).
func NewOpID() (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return "op-" + strings.ToLower(enc.EncodeToString(b[:])), nil
}
