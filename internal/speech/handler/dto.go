package handler

import "github.com/odiadev/naijatts/internal/speech/chain"

// SpeakRequest is the JSON body of POST /speak and POST /v1/tts.
type SpeakRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"` // accepted, not honoured
	APIKey string `json:"api_key,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// VoiceResponse describes one voice.
type VoiceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// VoicesResponse is the body of GET /voices.
type VoicesResponse struct {
	Voices []VoiceResponse `json:"voices"`
	Total  int             `json:"total"`
}

// BackendInfo describes one registered backend.
type BackendInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
	Breaker    string `json:"breaker,omitempty"`
}

// BackendsResponse is the body of GET /backends.
type BackendsResponse struct {
	Backends []BackendInfo `json:"backends"`
	Order    []string      `json:"order"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Service   string              `json:"service"`
	Status    string              `json:"status"`
	Engines   map[string]bool     `json:"engines"`
	Providers []string            `json:"providers"`
	Breakers  map[string]string   `json:"breakers"`
	Stats     chain.StatsSnapshot `json:"stats"`
	Timestamp string              `json:"timestamp"`
}
