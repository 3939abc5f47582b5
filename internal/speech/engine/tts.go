package engine

import (
	"context"
	"strings"
)

// Format identifies the container of a synthesized artifact.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// ContentType returns the HTTP media type for f.
func (f Format) ContentType() string {
	if f == FormatMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "wav":
		return FormatWAV, true
	case "mp3", "mpeg":
		return FormatMP3, true
	}
	return "", false
}

// Artifact is audio produced for one request. It is not modified after
// creation.
type Artifact struct {
	Audio      []byte
	Format     Format
	ProducedBy string
}

// Profile describes a voice and the per-backend parameters used to render it.
type Profile struct {
	ID           string            `yaml:"id"            json:"id"`
	Name         string            `yaml:"name"          json:"name"`
	Language     string            `yaml:"language"      json:"language"`
	Gender       string            `yaml:"gender"        json:"gender,omitempty"`
	Dialect      string            `yaml:"dialect"       json:"-"` // BCP-47 tag
	SpeakingRate float64           `yaml:"speaking_rate" json:"-"`
	Aliases      []string          `yaml:"aliases"       json:"-"`
	Backends     map[string]string `yaml:"backends"      json:"-"`
}

// BackendVoice returns the voice id configured for backend, or fallback.
func (p Profile) BackendVoice(backend, fallback string) string {
	if v := p.Backends[backend]; v != "" {
		return v
	}
	return fallback
}

// Rate returns the speaking rate, defaulting to 1.0.
func (p Profile) Rate() float64 {
	if p.SpeakingRate <= 0 {
		return 1.0
	}
	return p.SpeakingRate
}

// Request is one synthesis attempt.
type Request struct {
	// Text is the caller's text after trimming.
	Text string
	// Spoken is Text after accent normalization; networked engines read it.
	Spoken string
	Voice  Profile
}

// TTSEngine synthesizes speech from text.
type TTSEngine interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (*Artifact, error)
	Close() error
}
