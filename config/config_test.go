package config

import (
	"reflect"
	"testing"
	"time"
)

func TestProvidersAndKeys(t *testing.T) {
	c := SpeakerConfig{
		TTSProviders: " upstream, ,google ,openai",
		ValidAPIKeys: "demo,odia_live,",
	}
	if got, want := c.Providers(), []string{"upstream", "google", "openai"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Providers() = %v, want %v", got, want)
	}
	if got, want := c.APIKeys(), []string{"demo", "odia_live"}; !reflect.DeepEqual(got, want) {
		t.Errorf("APIKeys() = %v, want %v", got, want)
	}
	if got := (&SpeakerConfig{}).Providers(); len(got) != 0 {
		t.Errorf("empty Providers() = %v", got)
	}
}

func TestChainConfig(t *testing.T) {
	c := SpeakerConfig{MaxTextLength: 3000, ProviderTimeoutSec: 10, BreakerThreshold: 3, BreakerResetSec: 60}
	cc := c.ChainConfig()
	if cc.MaxTextLength != 3000 || cc.BreakerThreshold != 3 {
		t.Errorf("ChainConfig() = %+v", cc)
	}
	if cc.ProviderTimeout != 10*time.Second || cc.BreakerReset != time.Minute {
		t.Errorf("durations = %v/%v", cc.ProviderTimeout, cc.BreakerReset)
	}
}

func TestBackendConfigOmitsEmpty(t *testing.T) {
	c := SpeakerConfig{
		ElevenLabsAPIKey: "xi",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		SynthPreset:      "compact",
	}
	got := c.BackendConfig()
	want := map[string]string{
		"elevenlabs_api_key": "xi",
		"openai_base_url":    "https://api.openai.com/v1",
		"synth_preset":       "compact",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BackendConfig() = %v, want %v", got, want)
	}
}
