package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/odiadev/naijatts/internal/speech/backends/restutil"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
)

func init() {
	registry.TTS.Register("openai", func(config map[string]string) (engine.TTSEngine, error) {
		apiKey := config["openai_api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key required (set openai_api_key in config)")
		}
		baseURL := config["openai_base_url"]
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := config["openai_model"]
		if model == "" {
			model = "tts-1"
		}
		return &OpenAITTS{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), model: model}, nil
	})
}

// OpenAITTS implements TTSEngine using the OpenAI-compatible speech API.
type OpenAITTS struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type openAITTSRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

func (o *OpenAITTS) Name() string { return "openai" }

func (o *OpenAITTS) Synthesize(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	voice := req.Voice.BackendVoice("openai", "alloy")

	body := openAITTSRequest{
		Model:          o.model,
		Input:          req.Spoken,
		Voice:          voice,
		ResponseFormat: "wav",
		Speed:          req.Voice.Rate(),
	}
	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}

	audio, _, err := restutil.DoRaw(ctx, o.client, http.MethodPost, o.baseURL+"/audio/speech", headers, body)
	if err != nil {
		return nil, fmt.Errorf("openai TTS: %w", err)
	}
	return &engine.Artifact{Audio: audio, Format: engine.FormatWAV, ProducedBy: o.Name()}, nil
}

func (o *OpenAITTS) Close() error {
	return nil
}
