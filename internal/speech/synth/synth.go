// Package synth renders a speech-like waveform from text without any
// linguistic model. It is the last-resort provider and cannot fail.
//
// The waveform is three sinusoidal "formants" whose centre frequencies drift
// slowly, shaped by a decaying envelope and mixed with a small amount of
// index-derived noise. Output is bit-identical for the same text and Params
// within Go; it is not promised bit-exact against other runtimes, whose sin
// and exp may round differently.
package synth

import (
	"math"
	"unicode/utf8"

	"github.com/odiadev/naijatts/internal/audio/wav"
)

// SampleRate is the default output rate in Hz.
const SampleRate = 22050

// fullScale is the PCM value of a unit sample before clamping.
const fullScale = 16383

type formant struct {
	centre, swing, rate, weight float64
}

// Weights sum to 1.0 and favour the lowest formant.
var formants = [3]formant{
	{centre: 500, swing: 200, rate: 3, weight: 0.5},
	{centre: 1500, swing: 300, rate: 5, weight: 0.3},
	{centre: 2500, swing: 400, rate: 7, weight: 0.2},
}

// Params controls duration and envelope shaping.
type Params struct {
	SampleRate     int
	SecondsPerChar float64
	BaseSeconds    float64
	MinSeconds     float64
	MaxSeconds     float64
	Gain           float64
	Decay          float64
	NoiseLevel     float64
	Seed           uint32
}

// Extended is the canonical preset: up to 8s of audio.
var Extended = Params{
	SampleRate:     SampleRate,
	SecondsPerChar: 0.08,
	BaseSeconds:    0.5,
	MaxSeconds:     8.0,
	Gain:           0.2,
	Decay:          0.5,
	NoiseLevel:     0.05,
}

// Compact caps audio at 4s and has no base offset.
var Compact = Params{
	SampleRate:     SampleRate,
	SecondsPerChar: 0.08,
	BaseSeconds:    0,
	MaxSeconds:     4.0,
	Gain:           0.2,
	Decay:          0.5,
	NoiseLevel:     0.05,
}

// Preset returns the named parameter set; unknown names yield Extended.
func Preset(name string) Params {
	if name == "compact" {
		return Compact
	}
	return Extended
}

// Generator renders waveforms with fixed Params. It holds no mutable state
// and is safe for concurrent use.
type Generator struct {
	p Params
}

// Upper bounds accepted by New; larger values are clamped.
const (
	maxSampleRate = 192000
	maxSeconds    = 600
)

// New returns a generator. Zero, negative or non-finite fields fall back to
// Extended, and oversized rates and durations are clamped.
func New(p Params) *Generator {
	if p.SampleRate <= 0 {
		p.SampleRate = Extended.SampleRate
	}
	if p.SampleRate > maxSampleRate {
		p.SampleRate = maxSampleRate
	}
	if !finite(p.SecondsPerChar) || p.SecondsPerChar < 0 {
		p.SecondsPerChar = Extended.SecondsPerChar
	}
	if !finite(p.BaseSeconds) || p.BaseSeconds < 0 {
		p.BaseSeconds = 0
	}
	if !finite(p.MinSeconds) || p.MinSeconds < 0 {
		p.MinSeconds = 0
	}
	if math.IsNaN(p.MaxSeconds) || p.MaxSeconds <= 0 {
		p.MaxSeconds = Extended.MaxSeconds
	}
	if p.MaxSeconds > maxSeconds {
		p.MaxSeconds = maxSeconds
	}
	if p.MinSeconds > p.MaxSeconds {
		p.MinSeconds = p.MaxSeconds
	}
	if !finite(p.Gain) || p.Gain <= 0 {
		p.Gain = Extended.Gain
	}
	if !finite(p.Decay) || p.Decay < 0 {
		p.Decay = Extended.Decay
	}
	if !finite(p.NoiseLevel) || p.NoiseLevel < 0 {
		p.NoiseLevel = 0
	}
	return &Generator{p: p}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Params returns the effective parameters.
func (g *Generator) Params() Params {
	return g.p
}

// Duration returns the clip length in seconds for a text of n characters.
func (g *Generator) Duration(n int) float64 {
	d := float64(n)*g.p.SecondsPerChar + g.p.BaseSeconds
	return math.Min(math.Max(d, g.p.MinSeconds), g.p.MaxSeconds)
}

// Samples renders the PCM waveform for text.
func (g *Generator) Samples(text string) []int16 {
	chars := utf8.RuneCountInString(text)
	duration := g.Duration(chars)
	rate := float64(g.p.SampleRate)

	n := int(rate * duration)
	if n == 0 && chars > 0 {
		n = 1
		duration = 1 / rate
	}

	out := make([]int16, n)
	for i := range out {
		t := float64(i) / rate

		var signal float64
		for _, f := range formants {
			freq := f.centre + f.swing*math.Sin(t*f.rate)
			signal += f.weight * math.Sin(2*math.Pi*freq*t)
		}

		envelope := g.p.Gain * (1 - t/duration) * math.Exp(-t*g.p.Decay)
		v := fullScale * envelope * (signal + g.noise(i))
		out[i] = clamp16(v)
	}
	return out
}

// WAV renders text into a complete mono 16-bit WAV file.
func (g *Generator) WAV(text string) []byte {
	return wav.Encode(g.Samples(text), g.p.SampleRate)
}

// noise maps a sample index to [-level, level) with the lowbias32 integer
// hash, so the sequence is reproducible from (index, seed) alone.
func (g *Generator) noise(i int) float64 {
	u := float64(lowbias32(uint32(i)^g.p.Seed)) / (1 << 32)
	return g.p.NoiseLevel * (2*u - 1)
}

func lowbias32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// clamp16 truncates toward zero and saturates at the int16 range.
func clamp16(v float64) int16 {
	switch {
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
