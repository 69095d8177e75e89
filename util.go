package main

import (
	"cmp"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random (version 4) UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// Clamp restricts v to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
