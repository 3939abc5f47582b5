package elevenlabs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/odiadev/naijatts/internal/speech/backends/restutil"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultVoice   = "21m00Tcm4TlvDq8ikWAM" // Rachel
	outputFormat   = "mp3_44100_128"
)

func init() {
	registry.TTS.Register("elevenlabs", func(config map[string]string) (engine.TTSEngine, error) {
		apiKey := config["elevenlabs_api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("elevenlabs API key required (set elevenlabs_api_key in config)")
		}
		model := config["elevenlabs_model"]
		if model == "" {
			model = "eleven_multilingual_v2"
		}
		baseURL := config["elevenlabs_base_url"]
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &ElevenLabsTTS{
			apiKey:  apiKey,
			model:   model,
			baseURL: strings.TrimRight(baseURL, "/"),
		}, nil
	})
}

type elevenLabsRequest struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id"`
	VoiceSettings elevenLabsVoiceConfig `json:"voice_settings"`
}

type elevenLabsVoiceConfig struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// ElevenLabsTTS implements TTSEngine using the ElevenLabs REST API.
type ElevenLabsTTS struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func (e *ElevenLabsTTS) Name() string { return "elevenlabs" }

func (e *ElevenLabsTTS) Synthesize(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	voice := req.Voice.BackendVoice("elevenlabs", defaultVoice)
	apiURL := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", e.baseURL, url.PathEscape(voice), outputFormat)

	headers := map[string]string{
		"xi-api-key": e.apiKey,
		"Accept":     "audio/mpeg",
	}

	body := elevenLabsRequest{
		Text:    req.Spoken,
		ModelID: e.model,
		VoiceSettings: elevenLabsVoiceConfig{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           req.Voice.Rate(),
		},
	}

	audio, _, err := restutil.DoRaw(ctx, e.client, http.MethodPost, apiURL, headers, body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs TTS: %w", err)
	}
	return &engine.Artifact{Audio: audio, Format: engine.FormatMP3, ProducedBy: e.Name()}, nil
}

func (e *ElevenLabsTTS) Close() error {
	return nil
}
