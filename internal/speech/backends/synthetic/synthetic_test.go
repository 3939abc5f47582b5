package synthetic

import (
	"bytes"
	"context"
	"testing"

	"github.com/odiadev/naijatts/internal/audio/wav"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
	"github.com/odiadev/naijatts/internal/speech/synth"
)

func TestRegistered(t *testing.T) {
	if !registry.TTS.Has(Name) {
		t.Fatal("synthetic backend not registered")
	}
	eng, err := registry.TTS.Create(Name, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if eng.Name() != Name {
		t.Errorf("Name() = %q", eng.Name())
	}
}

func TestSynthesizeUsesRawText(t *testing.T) {
	s := New(synth.Extended)
	art, err := s.Synthesize(context.Background(), engine.Request{Text: "the water", Spoken: "di wata"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !wav.IsWAV(art.Audio) || art.Format != engine.FormatWAV || art.ProducedBy != Name {
		t.Errorf("artifact = %s %s wav=%v", art.Format, art.ProducedBy, wav.IsWAV(art.Audio))
	}
	want := synth.New(synth.Extended).WAV("the water")
	if !bytes.Equal(art.Audio, want) {
		t.Error("synthetic audio should be rendered from Text")
	}
}

func TestParamsFromConfig(t *testing.T) {
	p := ParamsFromConfig(map[string]string{
		"synth_preset":       "compact",
		"synth_max_seconds":  "2.5",
		"synth_seed":         "7",
		"synth_base_seconds": "not-a-number",
	})
	if p.MaxSeconds != 2.5 || p.Seed != 7 {
		t.Errorf("params = %+v", p)
	}
	if p.BaseSeconds != synth.Compact.BaseSeconds {
		t.Errorf("bad value should be ignored, BaseSeconds = %v", p.BaseSeconds)
	}
	if d := ParamsFromConfig(nil); d != synth.Extended {
		t.Errorf("default params = %+v, want Extended", d)
	}
}

func TestNonFiniteConfigIgnored(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf", "1e400"} {
		p := ParamsFromConfig(map[string]string{
			"synth_max_seconds":      v,
			"synth_seconds_per_char": v,
		})
		if p.MaxSeconds != synth.Extended.MaxSeconds || p.SecondsPerChar != synth.Extended.SecondsPerChar {
			t.Errorf("%s: params = %+v, want Extended values", v, p)
		}

		eng, err := registry.TTS.Create(Name, map[string]string{"synth_max_seconds": v})
		if err != nil {
			t.Fatalf("%s: Create: %v", v, err)
		}
		art, err := eng.Synthesize(context.Background(), engine.Request{Text: "hello"})
		if err != nil {
			t.Fatalf("%s: Synthesize: %v", v, err)
		}
		if !wav.IsWAV(art.Audio) || len(art.Audio) <= wav.HeaderSize {
			t.Errorf("%s: got %d bytes, want a non-empty WAV", v, len(art.Audio))
		}
	}
}
