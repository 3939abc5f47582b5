package config

import (
	"strings"
	"time"

	"github.com/pitabwire/frame/config"

	"github.com/odiadev/naijatts/internal/speech/chain"
)

// SpeakerConfig holds configuration for the speech service.
type SpeakerConfig struct {
	config.ConfigurationDefault

	// Provider chain
	TTSProviders       string `envDefault:"upstream,elevenlabs,google,openai" env:"TTS_PROVIDERS"`
	ProviderTimeoutSec int    `envDefault:"10"                                env:"TTS_PROVIDER_TIMEOUT_SEC"`
	BreakerThreshold   int    `envDefault:"3"                                 env:"TTS_BREAKER_THRESHOLD"`
	BreakerResetSec    int    `envDefault:"60"                                env:"TTS_BREAKER_RESET_SEC"`
	MaxTextLength      int    `envDefault:"3000"                              env:"TTS_MAX_TEXT_LENGTH"`
	UpstreamBaseURL    string `envDefault:""                                  env:"UPSTREAM_BASE_URL"`
	UpstreamAPIKey     string `envDefault:""                                  env:"UPSTREAM_API_KEY"`
	ElevenLabsAPIKey   string `envDefault:""                                  env:"ELEVENLABS_API_KEY"`
	ElevenLabsModel    string `envDefault:"eleven_multilingual_v2"            env:"ELEVENLABS_MODEL"`
	GoogleAPIKey       string `envDefault:""                                  env:"GOOGLE_API_KEY"`
	OpenAIAPIKey       string `envDefault:""                                  env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `envDefault:"https://api.openai.com/v1"         env:"OPENAI_BASE_URL"`
	OpenAIModel        string `envDefault:"tts-1"                             env:"OPENAI_TTS_MODEL"`

	// Fallback synthesizer
	SynthPreset         string `envDefault:"extended" env:"TTS_SYNTH_PRESET"`
	SynthSecondsPerChar string `envDefault:""         env:"TTS_SYNTH_SECONDS_PER_CHAR"`
	SynthBaseSeconds    string `envDefault:""         env:"TTS_SYNTH_BASE_SECONDS"`
	SynthMinSeconds     string `envDefault:""         env:"TTS_SYNTH_MIN_SECONDS"`
	SynthMaxSeconds     string `envDefault:""         env:"TTS_SYNTH_MAX_SECONDS"`
	SynthSeed           string `envDefault:""         env:"TTS_SYNTH_SEED"`

	// Cache and voices
	CacheDir    string `envDefault:"./cache"  env:"TTS_CACHE_DIR"`
	RedisURL    string `envDefault:""         env:"REDIS_URL"`
	RedisPrefix string `envDefault:"tts"      env:"REDIS_PREFIX"`
	VoicesFile  string `envDefault:""         env:"TTS_VOICES_FILE"`
	VoicesWatch bool   `envDefault:"false"    env:"TTS_VOICES_WATCH"`

	// API keys
	DefaultAPIKey    string `envDefault:"demo"           env:"TTS_DEFAULT_API_KEY"`
	ValidAPIKeys     string `envDefault:"demo,odia_live" env:"TTS_VALID_API_KEYS"`
	StaticRatePerMin int    `envDefault:"60"             env:"TTS_STATIC_RATE_PER_MIN"`
	AuthFailOpen     bool   `envDefault:"false"          env:"TTS_AUTH_FAIL_OPEN"`
	KeyPepper        string `envDefault:""               env:"KEY_PEPPER"`
	AdminToken       string `envDefault:""               env:"ADMIN_TOKEN"`
	DatastoreEnabled bool   `envDefault:"false"          env:"TTS_DATASTORE_ENABLED"`
	RuntimeMetrics   bool   `envDefault:"true"           env:"TTS_RUNTIME_METRICS"`
}

// Providers returns the configured networked providers in priority order.
func (c *SpeakerConfig) Providers() []string {
	return splitList(c.TTSProviders)
}

// APIKeys returns the static allow-list.
func (c *SpeakerConfig) APIKeys() []string {
	return splitList(c.ValidAPIKeys)
}

// ChainConfig converts the provider chain settings.
func (c *SpeakerConfig) ChainConfig() chain.Config {
	return chain.Config{
		MaxTextLength:    c.MaxTextLength,
		ProviderTimeout:  time.Duration(c.ProviderTimeoutSec) * time.Second,
		BreakerThreshold: c.BreakerThreshold,
		BreakerReset:     time.Duration(c.BreakerResetSec) * time.Second,
	}
}

// BackendConfig builds the config map handed to every registry factory.
// Empty values are left out so backends apply their own defaults.
func (c *SpeakerConfig) BackendConfig() map[string]string {
	all := map[string]string{
		"upstream_base_url":      c.UpstreamBaseURL,
		"upstream_api_key":       c.UpstreamAPIKey,
		"elevenlabs_api_key":     c.ElevenLabsAPIKey,
		"elevenlabs_model":       c.ElevenLabsModel,
		"google_api_key":         c.GoogleAPIKey,
		"openai_api_key":         c.OpenAIAPIKey,
		"openai_base_url":        c.OpenAIBaseURL,
		"openai_model":           c.OpenAIModel,
		"synth_preset":           c.SynthPreset,
		"synth_seconds_per_char": c.SynthSecondsPerChar,
		"synth_base_seconds":     c.SynthBaseSeconds,
		"synth_min_seconds":      c.SynthMinSeconds,
		"synth_max_seconds":      c.SynthMaxSeconds,
		"synth_seed":             c.SynthSeed,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
