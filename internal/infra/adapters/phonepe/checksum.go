package phonepe

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Signer produces X-VERIFY header values.
type Signer struct {
	saltKey   string
	saltIndex int
}

func NewSigner(saltKey string, saltIndex int) Signer {
	return Signer{saltKey: saltKey, saltIndex: saltIndex}
}

// Sign returns hex(sha256(payloadB64 + path + saltKey)) + "###" + saltIndex.
// GET calls pass an empty payloadB64.
func (s Signer) Sign(payloadB64, path string) string {
	sum := sha256.Sum256([]byte(payloadB64 + path + s.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + strconv.Itoa(s.saltIndex)
}

// SignPath signs a bodiless call.
func (s Signer) SignPath(path string) string { return s.Sign("", path) }
