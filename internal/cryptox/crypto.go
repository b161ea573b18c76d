// Package cryptox holds password hashing for user accounts.
package cryptox

import (
	"crypto/subtle"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltLength = 16
	hashLength = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns a fresh random salt for HashPassword.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltLength)
}

// HashPassword derives the stored password hash with argon2id.
func HashPassword(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, hashLength)
}

// VerifyPassword reports whether password matches hash under salt.
// The comparison is constant time.
func VerifyPassword(password, salt, hash []byte) bool {
	got := HashPassword(password, salt)
	defer common.WipeByteArray(got)
	return subtle.ConstantTimeCompare(got, hash) == 1
}
