// Package synthetic registers the offline waveform generator as a TTS
// backend. It needs no credentials and never returns an error.
package synthetic

import (
	"context"
	"math"
	"strconv"

	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
	"github.com/odiadev/naijatts/internal/speech/synth"
)

// Name is the registry name of this backend.
const Name = "synthetic"

func init() {
	registry.TTS.Register(Name, func(config map[string]string) (engine.TTSEngine, error) {
		return New(ParamsFromConfig(config)), nil
	})
}

// ParamsFromConfig builds generator parameters from synth_* keys, starting
// from the synth_preset named preset. Unparseable or non-finite values are
// ignored.
func ParamsFromConfig(config map[string]string) synth.Params {
	p := synth.Preset(config["synth_preset"])
	setFloat := func(key string, dst *float64) {
		v, err := strconv.ParseFloat(config[key], 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			*dst = v
		}
	}
	setFloat("synth_seconds_per_char", &p.SecondsPerChar)
	setFloat("synth_base_seconds", &p.BaseSeconds)
	setFloat("synth_min_seconds", &p.MinSeconds)
	setFloat("synth_max_seconds", &p.MaxSeconds)
	if v, err := strconv.ParseUint(config["synth_seed"], 10, 32); err == nil {
		p.Seed = uint32(v)
	}
	return p
}

// Synthetic implements TTSEngine with synth.Generator.
type Synthetic struct {
	gen *synth.Generator
}

// New returns a backend rendering with p.
func New(p synth.Params) *Synthetic {
	return &Synthetic{gen: synth.New(p)}
}

func (s *Synthetic) Name() string { return Name }

// Synthesize renders the caller's text, not the accent-normalized form, so
// clip length tracks what was submitted.
func (s *Synthetic) Synthesize(_ context.Context, req engine.Request) (*engine.Artifact, error) {
	return &engine.Artifact{
		Audio:      s.gen.WAV(req.Text),
		Format:     engine.FormatWAV,
		ProducedBy: Name,
	}, nil
}

func (s *Synthetic) Close() error {
	return nil
}
