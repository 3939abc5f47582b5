package apikey

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Signer hashes keys with HMAC-SHA256 under a server-side pepper.
type Signer struct {
	pepper []byte
}

// NewSigner returns a signer. An empty pepper is rejected.
func NewSigner(pepper string) (*Signer, error) {
	if pepper == "" {
		return nil, errors.New("key pepper is required")
	}
	return &Signer{pepper: []byte(pepper)}, nil
}

// Hash returns the base64 HMAC of the full key.
func (s *Signer) Hash(full string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(full))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks full against a stored hash in constant time.
func (s *Signer) Verify(full, hash string) bool {
	return hmac.Equal([]byte(s.Hash(full)), []byte(hash))
}

// GenerateKey returns a new "<type>_live_<prefix>_<secret>" key, its
// prefix and its hash.
func (s *Signer) GenerateKey(keyType string) (full, prefix, hash string, err error) {
	if keyType != TypePublishable && keyType != TypeSecret {
		return "", "", "", fmt.Errorf("unknown key type %q", keyType)
	}

	p := make([]byte, 4)
	if _, err := rand.Read(p); err != nil {
		return "", "", "", err
	}
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", err
	}

	prefix = hex.EncodeToString(p)
	full = keyType + "_live_" + prefix + "_" + base64.RawURLEncoding.EncodeToString(secret)
	return full, prefix, s.Hash(full), nil
}

// ParsePrefix extracts the lookup prefix of a full key.
func ParsePrefix(full string) (string, bool) {
	parts := strings.SplitN(full, "_", 4)
	if len(parts) != 4 || parts[1] != "live" || parts[2] == "" || parts[3] == "" {
		return "", false
	}
	if parts[0] != TypePublishable && parts[0] != TypeSecret {
		return "", false
	}
	return parts[2], true
}
