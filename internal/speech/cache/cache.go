// Package cache stores synthesized audio keyed by a hash of (text, voice).
// Entries are never invalidated or evicted.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/odiadev/naijatts/internal/speech/engine"
)

// KeyLength is the number of hex characters kept from the digest.
const KeyLength = 16

// ProducedBy is reported for entries whose producing engine was not
// recorded. Stores otherwise return the engine that made the audio.
const ProducedBy = "cache"

// ErrMiss is returned by Get when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Key derives the entry key for text spoken by voiceID.
func Key(text, voiceID string) string {
	sum := sha256.Sum256([]byte(text + "_" + voiceID))
	return hex.EncodeToString(sum[:])[:KeyLength]
}

// Store persists artifacts by key. Implementations must be safe for
// concurrent use; concurrent Puts of the same key may race, and the last
// writer wins.
type Store interface {
	Get(ctx context.Context, key string) (*engine.Artifact, error)
	Put(ctx context.Context, key string, art *engine.Artifact) error
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*engine.Artifact, error) { return nil, ErrMiss }

func (Nop) Put(context.Context, string, *engine.Artifact) error { return nil }
