package chain

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/odiadev/naijatts/internal/audio/wav"
	"github.com/odiadev/naijatts/internal/speech/backends/synthetic"
	"github.com/odiadev/naijatts/internal/speech/cache"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/synth"
	"github.com/odiadev/naijatts/pkg/events"
)

type fakeEngine struct {
	name  string
	err   error
	audio []byte
	delay time.Duration

	calls   atomic.Int32
	mu      sync.Mutex
	lastReq engine.Request
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Synthesize(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Artifact{Audio: f.audio, Format: engine.FormatMP3}, nil
}

func (f *fakeEngine) Close() error { return nil }

func failing(name string) *fakeEngine {
	return &fakeEngine{name: name, err: errors.New("connection refused")}
}

func working(name string) *fakeEngine {
	return &fakeEngine{name: name, audio: bytes.Repeat([]byte{0xff}, 512)}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProviderTimeout = 2 * time.Second
	return cfg
}

func TestAllProvidersUnavailable(t *testing.T) {
	a, b := failing("upstream"), failing("google")
	svc := New(testConfig(), []engine.TTSEngine{a, b})

	res, err := svc.Speak(context.Background(), "the water is better", "nigerian-female")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if res.Artifact.ProducedBy != synthetic.Name || res.Artifact.Format != engine.FormatWAV {
		t.Errorf("artifact = %s %s", res.Artifact.ProducedBy, res.Artifact.Format)
	}
	if !wav.IsWAV(res.Artifact.Audio) {
		t.Error("fallback audio is not WAV")
	}
	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls.Load(), b.calls.Load())
	}
	st := svc.Stats()
	if st.Errors != 2 || st.TotalRequests != 1 || st.ByProvider[synthetic.Name] != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestNoNetworkedProviders(t *testing.T) {
	svc := New(testConfig(), nil)
	for _, text := range []string{"a", "hello", "how far, my guy"} {
		res, err := svc.Speak(context.Background(), text, "")
		if err != nil {
			t.Fatalf("Speak(%q): %v", text, err)
		}
		if _, err := wav.ParseHeader(res.Artifact.Audio); err != nil {
			t.Errorf("Speak(%q): %v", text, err)
		}
	}
}

func TestPriorityOrder(t *testing.T) {
	first, second := working("upstream"), working("google")
	svc := New(testConfig(), []engine.TTSEngine{first, second})

	res, err := svc.Speak(context.Background(), "good morning", "nigerian-male")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if res.Artifact.ProducedBy != "upstream" {
		t.Errorf("ProducedBy = %q, want upstream", res.Artifact.ProducedBy)
	}
	if second.calls.Load() != 0 {
		t.Error("lower-priority provider was called after a success")
	}
	if got := first.lastReq.Spoken; got != "good morning" {
		t.Errorf("Spoken = %q", got)
	}
	if first.lastReq.Voice.ID != "nigerian-male" {
		t.Errorf("voice = %q", first.lastReq.Voice.ID)
	}
}

func TestNetworkedProvidersReceiveNormalizedText(t *testing.T) {
	p := working("google")
	svc := New(testConfig(), []engine.TTSEngine{p})
	if _, err := svc.Speak(context.Background(), "  The Water is Better ", ""); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if p.lastReq.Text != "The Water is Better" || p.lastReq.Spoken != "di wata is berra" {
		t.Errorf("request = %q / %q", p.lastReq.Text, p.lastReq.Spoken)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	store, err := cache.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	p := working("elevenlabs")
	svc := New(testConfig(), []engine.TTSEngine{p}, WithStore(store))
	ctx := context.Background()

	first, err := svc.Speak(ctx, "Welcome to Lagos", "nigerian-female")
	if err != nil {
		t.Fatalf("first Speak: %v", err)
	}
	second, err := svc.Speak(ctx, "Welcome to Lagos", "nigerian-female")
	if err != nil {
		t.Fatalf("second Speak: %v", err)
	}

	if first.CacheHit || !second.CacheHit {
		t.Errorf("CacheHit = %v/%v, want false/true", first.CacheHit, second.CacheHit)
	}
	if !bytes.Equal(first.Artifact.Audio, second.Artifact.Audio) {
		t.Error("cached audio differs")
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}
	if st := svc.Stats(); st.CacheHits != 1 || st.TotalRequests != 2 {
		t.Errorf("stats = %+v", st)
	}
	if first.CacheKey != cache.Key("Welcome to Lagos", "nigerian-female") {
		t.Errorf("CacheKey = %q", first.CacheKey)
	}
}

func TestCacheKeyUsesResolvedVoice(t *testing.T) {
	store, _ := cache.NewDiskStore(t.TempDir())
	p := working("google")
	svc := New(testConfig(), []engine.TTSEngine{p}, WithStore(store))
	ctx := context.Background()

	svc.Speak(ctx, "hello", "naija_female")
	res, _ := svc.Speak(ctx, "hello", "")
	if !res.CacheHit {
		t.Error("alias and default should share a cache entry")
	}
}

func TestValidation(t *testing.T) {
	svc := New(testConfig(), nil)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Speak(ctx, text, "")
		if !errors.Is(err, ErrTextRequired) || !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Speak(%q) err = %v, want ErrTextRequired", text, err)
		}
	}

	atLimit := strings.Repeat("ọ", svc.MaxTextLength())
	if _, err := svc.Speak(ctx, atLimit, ""); err != nil {
		t.Errorf("text at limit rejected: %v", err)
	}

	_, err := svc.Speak(ctx, atLimit+"a", "")
	if !errors.Is(err, ErrTextTooLong) || !errors.Is(err, ErrInvalidInput) {
		t.Errorf("over-limit err = %v, want ErrTextTooLong", err)
	}
}

func TestUnknownVoiceResolvesToDefault(t *testing.T) {
	svc := New(testConfig(), nil)
	res, err := svc.Speak(context.Background(), "hello", "does-not-exist")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if res.Voice.ID != "nigerian-female" {
		t.Errorf("voice = %q, want nigerian-female", res.Voice.ID)
	}
}

func TestProviderTimeout(t *testing.T) {
	slow := &fakeEngine{name: "upstream", audio: []byte("late"), delay: 5 * time.Second}
	cfg := testConfig()
	cfg.ProviderTimeout = 20 * time.Millisecond
	svc := New(cfg, []engine.TTSEngine{slow})

	start := time.Now()
	res, err := svc.Speak(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
	if res.Artifact.ProducedBy != synthetic.Name {
		t.Errorf("ProducedBy = %q", res.Artifact.ProducedBy)
	}
	if svc.Stats().Errors != 1 {
		t.Errorf("errors = %d, want 1", svc.Stats().Errors)
	}
}

func TestEmptyAudioIsFailure(t *testing.T) {
	empty := &fakeEngine{name: "openai"}
	svc := New(testConfig(), []engine.TTSEngine{empty})
	res, err := svc.Speak(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if res.Artifact.ProducedBy != synthetic.Name {
		t.Errorf("ProducedBy = %q", res.Artifact.ProducedBy)
	}
}

func TestShortAudioFallsThroughAndIsNotCached(t *testing.T) {
	store, err := cache.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	short := &fakeEngine{name: "upstream", audio: []byte("oops")}
	svc := New(testConfig(), []engine.TTSEngine{short}, WithStore(store))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.Speak(ctx, "short reply", "")
		if err != nil {
			t.Fatalf("call %d: Speak: %v", i, err)
		}
		if len(res.Artifact.Audio) < MinAudioBytes || !wav.IsWAV(res.Artifact.Audio) {
			t.Errorf("call %d: got %d bytes, want synthetic WAV", i, len(res.Artifact.Audio))
		}
		if res.Artifact.ProducedBy != synthetic.Name {
			t.Errorf("call %d: ProducedBy = %q, want %q", i, res.Artifact.ProducedBy, synthetic.Name)
		}
	}

	cached, err := store.Get(ctx, cache.Key("short reply", "nigerian-female"))
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if bytes.Equal(cached.Audio, []byte("oops")) {
		t.Error("short provider audio was cached")
	}
	if short.calls.Load() != 1 {
		t.Errorf("short provider calls = %d, want 1 (second request is a cache hit)", short.calls.Load())
	}
	if st := svc.Stats(); st.Errors != 1 {
		t.Errorf("errors = %d, want 1", st.Errors)
	}
}

func TestShortAudioFromFallbackIsSynthesisFailure(t *testing.T) {
	tiny := &fakeEngine{name: synthetic.Name, audio: []byte("RIFF")}
	svc := New(testConfig(), nil, WithFallback(tiny))
	_, err := svc.Speak(context.Background(), "hello", "")
	if !errors.Is(err, ErrSynthesisFailure) || !errors.Is(err, ErrShortAudio) {
		t.Errorf("err = %v, want ErrSynthesisFailure wrapping ErrShortAudio", err)
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	svc := New(Config{}, []engine.TTSEngine{working("upstream")})
	def := DefaultConfig()
	if svc.MaxTextLength() != def.MaxTextLength {
		t.Errorf("MaxTextLength = %d, want %d", svc.MaxTextLength(), def.MaxTextLength)
	}
	if got := svc.providers[0].timeout; got != def.ProviderTimeout {
		t.Errorf("provider timeout = %v, want %v", got, def.ProviderTimeout)
	}
	if got := svc.providers[len(svc.providers)-1].timeout; got != 0 {
		t.Errorf("fallback timeout = %v, want none", got)
	}
}

func TestBreakerSkipsProvider(t *testing.T) {
	bad := failing("google")
	cfg := testConfig()
	cfg.BreakerThreshold = 2
	cfg.BreakerReset = time.Hour
	svc := New(cfg, []engine.TTSEngine{bad})

	for _, text := range []string{"one", "two", "three", "four"} {
		if _, err := svc.Speak(context.Background(), text, ""); err != nil {
			t.Fatalf("Speak(%q): %v", text, err)
		}
	}
	if n := bad.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
	if st := svc.Breakers()["google"]; st != StateOpen {
		t.Errorf("breaker = %q, want open", st)
	}
	if _, ok := svc.Breakers()[synthetic.Name]; ok {
		t.Error("synthetic provider should not have a breaker")
	}
}

func TestSynthesisFailure(t *testing.T) {
	svc := New(testConfig(), nil, WithFallback(failing(synthetic.Name)))
	_, err := svc.Speak(context.Background(), "hello", "")
	if !errors.Is(err, ErrSynthesisFailure) {
		t.Fatalf("err = %v, want ErrSynthesisFailure", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("synthesis failure must not look like invalid input")
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	store, _ := cache.NewDiskStore(t.TempDir())
	p := &fakeEngine{name: "upstream", audio: []byte(strings.Repeat("x", 200)), delay: 100 * time.Millisecond}
	svc := New(testConfig(), []engine.TTSEngine{p}, WithStore(store))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Speak(context.Background(), "same text", ""); err != nil {
				t.Errorf("Speak: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestSyntheticMovedLast(t *testing.T) {
	svc := New(testConfig(), []engine.TTSEngine{synthetic.New(synth.Compact), working("google")})
	got := svc.Providers()
	if len(got) != 2 || got[0] != "google" || got[1] != synthetic.Name {
		t.Errorf("Providers() = %v", got)
	}
}

func TestBuildAvailability(t *testing.T) {
	svc, err := Build(context.Background(), testConfig(), []string{"google", "nope", "synthetic"}, map[string]string{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	avail := svc.Availability()
	if avail["google"] || avail["nope"] || !avail[synthetic.Name] {
		t.Errorf("availability = %v", avail)
	}
	if got := svc.Providers(); len(got) != 1 || got[0] != synthetic.Name {
		t.Errorf("Providers() = %v", got)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBuildUsesSynthConfig(t *testing.T) {
	svc, err := Build(context.Background(), testConfig(), nil, map[string]string{"synth_preset": "compact"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res, _ := svc.Speak(context.Background(), strings.Repeat("a", 1000), "")
	h, err := wav.ParseHeader(res.Artifact.Audio)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if want := uint32(synth.SampleRate * 4 * 2); h.DataSize != want {
		t.Errorf("data size = %d, want %d (4s compact cap)", h.DataSize, want)
	}
}

func TestEventsEmitted(t *testing.T) {
	pub := events.NewPublisher(nil, "speaker", "events")
	ch := pub.Subscribe("test", 16)
	defer pub.Unsubscribe("test")

	svc := New(testConfig(), []engine.TTSEngine{failing("upstream")}, WithPublisher(pub, nil))
	if _, err := svc.Speak(context.Background(), "hello", ""); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	seen := map[events.EventType]bool{}
	timeout := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case env := <-ch:
			seen[env.Type] = true
		case <-timeout:
			t.Fatalf("events seen = %v", seen)
		}
	}
	if !seen[events.ProviderFailed] || !seen[events.SpeechSynthesized] {
		t.Errorf("events seen = %v", seen)
	}
}

func TestProviderErrorMatchesUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&ProviderError{Provider: "google", Err: cause})
	if !errors.Is(err, ErrProviderUnavailable) || !errors.Is(err, cause) {
		t.Errorf("errors.Is failed for %v", err)
	}
}
