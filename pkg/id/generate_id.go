package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Public identifier prefixes.
const (
	PrefixLoan       = "ln"
	PrefixInvestment = "iv"
)

// Hex32 returns 32 lowercase hex characters from 16 random bytes.
func Hex32() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// New returns prefix + "_" + Hex32(), e.g. "ln_3f9a6a1b3d544fbe8b3a6b3e8d6b2c88".
// An empty prefix yields the bare hex form.
func New(prefix string) string {
	if prefix == "" {
		return Hex32()
	}
	return prefix + "_" + Hex32()
}
