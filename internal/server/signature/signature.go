// Package signature derives the voter signature stored on eligibility
// receipts. The signature is a keyed one-way function of the profile's
// private sign, so receipts can be matched to a voter only by someone who
// holds both the server key and the profile.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"
)

// TokenLength is the length of every derived signature.
const TokenLength = 43

var (
	keySalt = []byte("blind-voting-app")
	keyInfo = []byte("voter-signature/v1")
)

// DeriveKey expands the configured secret into the signer key. It keeps the
// signer independent of other keys built from the same secret.
func DeriveKey(secret string) []byte {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(secret), keySalt, keyInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashSize bytes
		panic(err)
	}
	return key
}

// Signer turns profile secrets into voter signatures. It is safe for
// concurrent use.
type Signer struct {
	key []byte
}

func NewSigner(key []byte) *Signer {
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}
}

// Derive returns the voter signature for profileSecret. The result is
// deterministic for a given key and differs from the input.
// An empty profileSecret is a programming error and panics.
func (s *Signer) Derive(profileSecret string) string {
	if profileSecret == "" {
		panic("signature: empty profile secret")
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(profileSecret))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))[:TokenLength]
}
