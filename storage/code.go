package storage

import (
	"math/rand"
	"strings"
)

// CodeLength is the length of generated storage codes
const CodeLength = 8

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeGenerator mints storage codes
type CodeGenerator func() string

// GenerateCode returns a random alphanumeric storage code.
// Codes are not checked against existing blobs; 62^8 keys make collisions negligible.
func GenerateCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// ValidCode reports whether code has the shape of a generated storage code.
// Anything shorter would match other blobs by prefix.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
