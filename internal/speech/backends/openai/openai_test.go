package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odiadev/naijatts/internal/audio/wav"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
)

func TestSynthesize(t *testing.T) {
	clip := wav.Encode(make([]int16, 100), 24000)

	var gotAuth string
	var gotBody openAITTSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(clip)
	}))
	defer srv.Close()

	eng, err := registry.TTS.Create("openai", map[string]string{
		"openai_api_key":  "sk-test",
		"openai_base_url": srv.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	art, err := eng.Synthesize(context.Background(), engine.Request{Spoken: "how far"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Voice != "alloy" || gotBody.ResponseFormat != "wav" || gotBody.Model != "tts-1" {
		t.Errorf("body = %+v", gotBody)
	}
	if art.Format != engine.FormatWAV || !wav.IsWAV(art.Audio) {
		t.Errorf("artifact format = %s, wav = %v", art.Format, wav.IsWAV(art.Audio))
	}
}

func TestFactoryRequiresKey(t *testing.T) {
	if _, err := registry.TTS.Create("openai", nil); err == nil {
		t.Error("expected error without API key")
	}
}
