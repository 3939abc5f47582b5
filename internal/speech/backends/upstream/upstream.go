// Package upstream calls a remote Nigerian-voice TTS service that speaks the
// same /v1/tts contract this service exposes.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/odiadev/naijatts/internal/speech/backends/restutil"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
)

// outputFormat is the upstream's 48 kHz MP3 profile.
const outputFormat = "mp3_48k"

func init() {
	registry.TTS.Register("upstream", func(config map[string]string) (engine.TTSEngine, error) {
		baseURL := config["upstream_base_url"]
		if baseURL == "" {
			return nil, fmt.Errorf("upstream base URL required (set upstream_base_url in config)")
		}
		return &Upstream{
			baseURL: strings.TrimRight(baseURL, "/"),
			apiKey:  config["upstream_api_key"],
		}, nil
	})
}

type ttsRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

// Upstream implements TTSEngine against a remote /v1/tts endpoint.
type Upstream struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func (u *Upstream) Name() string { return "upstream" }

func (u *Upstream) Synthesize(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	headers := map[string]string{"Accept": "audio/mpeg"}
	if u.apiKey != "" {
		headers["X-API-Key"] = u.apiKey
	}

	body := ttsRequest{
		Text:   req.Spoken,
		Voice:  req.Voice.BackendVoice("upstream", req.Voice.ID),
		Format: outputFormat,
	}

	audio, contentType, err := restutil.DoRaw(ctx, u.client, http.MethodPost, u.baseURL+"/v1/tts", headers, body)
	if err != nil {
		return nil, fmt.Errorf("upstream TTS: %w", err)
	}

	format := engine.FormatMP3
	if strings.Contains(contentType, "wav") {
		format = engine.FormatWAV
	}
	return &engine.Artifact{Audio: audio, Format: format, ProducedBy: u.Name()}, nil
}

func (u *Upstream) Close() error {
	return nil
}
