package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	SpeechSynthesized EventType = "speech.synthesized"
	SpeechCacheHit    EventType = "speech.cache_hit"
	ProviderFailed    EventType = "provider.failed"
	KeyIssued         EventType = "apikey.issued"
	KeyRevoked        EventType = "apikey.revoked"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SpeechData is the payload for speech.synthesized and speech.cache_hit.
type SpeechData struct {
	CacheKey   string `json:"cache_key"`
	Voice      string `json:"voice"`
	Engine     string `json:"engine"`
	Format     string `json:"format"`
	Bytes      int    `json:"bytes"`
	Chars      int    `json:"chars"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// ProviderFailedData is the payload for provider.failed events.
type ProviderFailedData struct {
	Provider string `json:"provider"`
	Voice    string `json:"voice"`
	Error    string `json:"error"`
	Timeout  bool   `json:"timeout,omitempty"`
}

// KeyData is the payload for apikey.issued and apikey.revoked events.
type KeyData struct {
	KeyID  string `json:"key_id"`
	Prefix string `json:"prefix"`
	Name   string `json:"name,omitempty"`
}
