package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/odiadev/naijatts/internal/speech/backends/restutil"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
)

const (
	defaultBaseURL  = "https://texttospeech.googleapis.com"
	defaultVoice    = "en-GB-Neural2-A"
	defaultLanguage = "en-GB"
)

func init() {
	registry.TTS.Register("google", func(config map[string]string) (engine.TTSEngine, error) {
		apiKey := config["google_api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("google API key required (set google_api_key in config)")
		}
		baseURL := config["google_base_url"]
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &GoogleTTS{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}, nil
	})
}

type googleSynthRequest struct {
	Input       googleSynthInput       `json:"input"`
	Voice       googleSynthVoice       `json:"voice"`
	AudioConfig googleSynthAudioConfig `json:"audioConfig"`
}

type googleSynthInput struct {
	Text string `json:"text"`
}

type googleSynthVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type googleSynthAudioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate,omitempty"`
}

type googleSynthResponse struct {
	AudioContent string `json:"audioContent"` // base64-encoded
}

// GoogleTTS implements TTSEngine using the Google Cloud Text-to-Speech REST API.
type GoogleTTS struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (g *GoogleTTS) Name() string { return "google" }

func (g *GoogleTTS) Synthesize(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	apiURL := g.baseURL + "/v1/text:synthesize?key=" + url.QueryEscape(g.apiKey)

	voice := req.Voice.BackendVoice("google", defaultVoice)
	body := googleSynthRequest{
		Input: googleSynthInput{Text: req.Spoken},
		Voice: googleSynthVoice{
			LanguageCode: languageCode(voice, req.Voice.Dialect),
			Name:         voice,
		},
		AudioConfig: googleSynthAudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  req.Voice.Rate(),
		},
	}

	var resp googleSynthResponse
	if err := restutil.DoJSON(ctx, g.client, http.MethodPost, apiURL, nil, body, &resp); err != nil {
		return nil, fmt.Errorf("google TTS: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("google TTS decode audio: %w", err)
	}

	return &engine.Artifact{Audio: audio, Format: engine.FormatMP3, ProducedBy: g.Name()}, nil
}

func (g *GoogleTTS) Close() error {
	return nil
}

// languageCode takes the locale prefix of names like "en-GB-Neural2-A",
// falling back to dialect and then en-GB.
func languageCode(voice, dialect string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) == 3 && len(parts[0]) == 2 && len(parts[1]) == 2 {
		return parts[0] + "-" + parts[1]
	}
	if dialect != "" {
		return dialect
	}
	return defaultLanguage
}
