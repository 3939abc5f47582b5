// Package chain turns a speak request into audio. It checks the cache, then
// tries providers strictly in priority order and always ends with the
// synthetic generator, which cannot fail.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"
	"golang.org/x/sync/singleflight"

	"github.com/odiadev/naijatts/internal/httputil"
	"github.com/odiadev/naijatts/internal/metrics"
	"github.com/odiadev/naijatts/internal/speech/accent"
	"github.com/odiadev/naijatts/internal/speech/backends/synthetic"
	"github.com/odiadev/naijatts/internal/speech/cache"
	"github.com/odiadev/naijatts/internal/speech/engine"
	"github.com/odiadev/naijatts/internal/speech/registry"
	"github.com/odiadev/naijatts/internal/speech/synth"
	"github.com/odiadev/naijatts/internal/speech/voices"
	"github.com/odiadev/naijatts/pkg/events"
)

// Config bounds requests and provider attempts.
type Config struct {
	MaxTextLength    int
	ProviderTimeout  time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTextLength:    3000,
		ProviderTimeout:  10 * time.Second,
		BreakerThreshold: 3,
		BreakerReset:     60 * time.Second,
	}
}

// Result is the outcome of a successful Speak.
type Result struct {
	Artifact *engine.Artifact
	Voice    engine.Profile
	CacheKey string
	CacheHit bool
}

type provider struct {
	engine  engine.TTSEngine
	breaker *Breaker
	timeout time.Duration
}

// Service is the provider chain. It is safe for concurrent use.
type Service struct {
	cfg        Config
	providers  []*provider
	available  map[string]bool
	fallback   engine.TTSEngine
	voices     *voices.Table
	normalizer *accent.Normalizer
	store      cache.Store
	metrics    *metrics.Metrics
	publisher  *events.Publisher
	pool       workerpool.WorkerPool
	stats      *Stats
	group      singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

func WithVoices(t *voices.Table) Option { return func(s *Service) { s.voices = t } }

func WithNormalizer(n *accent.Normalizer) Option { return func(s *Service) { s.normalizer = n } }

func WithStore(store cache.Store) Option { return func(s *Service) { s.store = store } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithPublisher emits speech and provider events through pub. Events are
// sent from pool, or a new goroutine when pool is nil.
func WithPublisher(pub *events.Publisher, pool workerpool.WorkerPool) Option {
	return func(s *Service) {
		s.publisher = pub
		s.pool = pool
	}
}

// WithFallback replaces the terminal synthetic provider.
func WithFallback(e engine.TTSEngine) Option { return func(s *Service) { s.fallback = e } }

func withAvailability(a map[string]bool) Option { return func(s *Service) { s.available = a } }

// New builds a chain over engines in priority order. The fallback engine
// (synthetic by default) is always tried last, without a breaker or
// timeout; a synthetic engine passed in engines is moved to the end.
func New(cfg Config, engines []engine.TTSEngine, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = def.MaxTextLength
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = def.ProviderTimeout
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = def.BreakerReset
	}

	s := &Service{cfg: cfg, stats: newStats()}
	for _, opt := range opts {
		opt(s)
	}
	if s.voices == nil {
		s.voices = voices.NewBuiltinTable()
	}
	if s.normalizer == nil {
		s.normalizer = accent.New(nil)
	}
	if s.store == nil {
		s.store = cache.Nop{}
	}

	for _, e := range engines {
		if e.Name() == synthetic.Name {
			if s.fallback == nil {
				s.fallback = e
			}
			continue
		}
		s.providers = append(s.providers, &provider{
			engine: e,
			breaker: NewBreaker(BreakerConfig{
				FailureThreshold: cfg.BreakerThreshold,
				ResetTimeout:     cfg.BreakerReset,
			}),
			timeout: cfg.ProviderTimeout,
		})
	}
	if s.fallback == nil {
		s.fallback = synthetic.New(synth.Extended)
	}
	s.providers = append(s.providers, &provider{engine: s.fallback})

	if s.available == nil {
		s.available = make(map[string]bool, len(s.providers))
		for _, p := range s.providers {
			s.available[p.engine.Name()] = true
		}
	}
	s.available[s.fallback.Name()] = true
	return s
}

// Build creates the named backends from the registry with backendConfig.
// A backend whose factory fails is marked unavailable and left out; the
// synthetic backend is always present.
func Build(ctx context.Context, cfg Config, names []string, backendConfig map[string]string, opts ...Option) (*Service, error) {
	available := make(map[string]bool, len(names)+1)
	var engines []engine.TTSEngine
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == synthetic.Name {
			continue
		}
		e, err := registry.TTS.Create(name, backendConfig)
		if err != nil {
			available[name] = false
			slog.WarnContext(ctx, "tts provider unavailable",
				slog.String("provider", name), slog.String("error", err.Error()))
			continue
		}
		available[name] = true
		engines = append(engines, e)
	}

	fallback, err := registry.TTS.Create(synthetic.Name, backendConfig)
	if err != nil {
		return nil, fmt.Errorf("create synthetic provider: %w", err)
	}

	opts = append(opts, WithFallback(fallback), withAvailability(available))
	return New(cfg, engines, opts...), nil
}

// Validate trims text and checks its length in characters.
func (s *Service) Validate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextRequired
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxTextLength {
		return "", fmt.Errorf("%w: %d characters, limit %d", ErrTextTooLong, n, s.cfg.MaxTextLength)
	}
	return text, nil
}

// MaxTextLength returns the accepted text length in characters.
func (s *Service) MaxTextLength() int { return s.cfg.MaxTextLength }

// Voices returns the voice table used for resolution.
func (s *Service) Voices() *voices.Table { return s.voices }

// Speak returns audio for text in voiceID. Unknown voices resolve to the
// default profile. Only ErrInvalidInput and ErrSynthesisFailure are
// returned; provider failures are absorbed by the chain.
func (s *Service) Speak(ctx context.Context, text, voiceID string) (*Result, error) {
	s.stats.requests.Add(1)

	text, err := s.Validate(text)
	if err != nil {
		s.metrics.Request("invalid")
		return nil, err
	}

	voice := s.voices.Resolve(voiceID)
	key := cache.Key(text, voice.ID)

	if art := s.lookup(ctx, key); art != nil {
		s.stats.cacheHits.Add(1)
		s.metrics.CacheHit()
		s.metrics.Request("ok")
		s.emit(ctx, events.SpeechCacheHit, events.SpeechData{
			CacheKey: key,
			Voice:    voice.ID,
			Engine:   art.ProducedBy,
			Format:   string(art.Format),
			Bytes:    len(art.Audio),
			Chars:    utf8.RuneCountInString(text),
		})
		return &Result{Artifact: art, Voice: voice, CacheKey: key, CacheHit: true}, nil
	}

	req := engine.Request{Text: text, Spoken: s.normalizer.Normalize(text), Voice: voice}
	// Identical misses share one synthesis; it outlives any single caller.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.synthesize(flightCtx, req, key)
	})
	if err != nil {
		s.metrics.Request("failed")
		return nil, err
	}

	art := v.(*engine.Artifact)
	s.metrics.Request("ok")
	s.metrics.AudioSize(string(art.Format), len(art.Audio))
	return &Result{Artifact: art, Voice: voice, CacheKey: key}, nil
}

func (s *Service) lookup(ctx context.Context, key string) *engine.Artifact {
	art, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			util.Log(ctx).WithError(err).Error("audio cache read failed")
		}
		return nil
	}
	return art
}

func (s *Service) synthesize(ctx context.Context, req engine.Request, key string) (*engine.Artifact, error) {
	var lastErr error
	for _, p := range s.providers {
		name := p.engine.Name()
		if p.breaker != nil && !p.breaker.Allow() {
			s.metrics.ProviderAttempt(name, "skipped", 0)
			continue
		}

		start := time.Now()
		art, err := p.attempt(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = err
			s.recordFailure(ctx, p, req, err, elapsed)
			continue
		}

		if p.breaker != nil {
			p.breaker.RecordSuccess()
			s.metrics.BreakerOpen(name, false)
		}
		s.stats.success(name)
		s.metrics.ProviderAttempt(name, "success", elapsed)

		if err := s.store.Put(ctx, key, art); err != nil {
			util.Log(ctx).WithError(err).Error("audio cache write failed")
		}

		slog.InfoContext(ctx, "speech synthesized",
			slog.String("request_id", httputil.RequestIDFromContext(ctx)),
			slog.String("provider", name),
			slog.String("voice", req.Voice.ID),
			slog.String("size", humanize.Bytes(uint64(len(art.Audio)))),
			slog.Duration("duration", elapsed),
		)
		s.emit(ctx, events.SpeechSynthesized, events.SpeechData{
			CacheKey:   key,
			Voice:      req.Voice.ID,
			Engine:     name,
			Format:     string(art.Format),
			Bytes:      len(art.Audio),
			Chars:      utf8.RuneCountInString(req.Text),
			DurationMs: elapsed.Milliseconds(),
		})
		return art, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no provider attempted")
	}
	return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, lastErr)
}

func (s *Service) recordFailure(ctx context.Context, p *provider, req engine.Request, err error, elapsed time.Duration) {
	name := p.engine.Name()
	timeout := errors.Is(err, context.DeadlineExceeded)

	s.stats.errors.Add(1)
	status := "error"
	if timeout {
		status = "timeout"
	}
	s.metrics.ProviderAttempt(name, status, elapsed)
	if p.breaker != nil {
		p.breaker.RecordFailure()
		s.metrics.BreakerOpen(name, p.breaker.State() != StateClosed)
	}

	slog.WarnContext(ctx, "provider attempt failed",
		slog.String("request_id", httputil.RequestIDFromContext(ctx)),
		slog.String("provider", name),
		slog.String("voice", req.Voice.ID),
		slog.Bool("timeout", timeout),
		slog.String("error", err.Error()),
	)
	s.emit(ctx, events.ProviderFailed, events.ProviderFailedData{
		Provider: name,
		Voice:    req.Voice.ID,
		Error:    err.Error(),
		Timeout:  timeout,
	})
}

type attemptResult struct {
	art *engine.Artifact
	err error
}

// attempt runs one provider call. The deadline is enforced here as well as
// through ctx, so a backend that ignores its context still times out.
func (p *provider) attempt(ctx context.Context, req engine.Request) (*engine.Artifact, error) {
	name := p.engine.Name()
	if p.timeout <= 0 {
		art, err := p.engine.Synthesize(ctx, req)
		return checkArtifact(name, art, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		art, err := p.engine.Synthesize(ctx, req)
		done <- attemptResult{art, err}
	}()

	select {
	case r := <-done:
		return checkArtifact(name, r.art, r.err)
	case <-ctx.Done():
		return nil, &ProviderError{Provider: name, Err: ctx.Err()}
	}
}

func checkArtifact(name string, art *engine.Artifact, err error) (*engine.Artifact, error) {
	if err == nil && (art == nil || len(art.Audio) < MinAudioBytes) {
		err = ErrShortAudio
	}
	if err != nil {
		return nil, &ProviderError{Provider: name, Err: err}
	}
	if art.ProducedBy == "" {
		cp := *art
		cp.ProducedBy = name
		art = &cp
	}
	return art, nil
}

func (s *Service) emit(ctx context.Context, et events.EventType, data any) {
	if s.publisher == nil {
		return
	}
	evCtx := context.WithoutCancel(ctx)
	rid := httputil.RequestIDFromContext(ctx)
	fn := func() {
		if err := s.publisher.Emit(evCtx, et, rid, data); err != nil {
			slog.WarnContext(evCtx, "event publish failed",
				slog.String("event_type", string(et)), slog.String("error", err.Error()))
		}
	}
	if s.pool != nil {
		if err := s.pool.Submit(evCtx, fn); err != nil {
			slog.WarnContext(evCtx, "event pool full", slog.String("event_type", string(et)))
		}
	} else {
		go fn()
	}
}

// Providers returns provider names in attempt order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.engine.Name()
	}
	return names
}

// Availability reports which configured providers could be created. It is
// fixed when the service is built.
func (s *Service) Availability() map[string]bool {
	out := make(map[string]bool, len(s.available))
	for k, v := range s.available {
		out[k] = v
	}
	return out
}

// Breakers returns each breaker-guarded provider's state.
func (s *Service) Breakers() map[string]string {
	out := make(map[string]string)
	for _, p := range s.providers {
		if p.breaker != nil {
			out[p.engine.Name()] = p.breaker.State()
		}
	}
	return out
}

// Stats returns a snapshot of the request counters.
func (s *Service) Stats() StatsSnapshot { return s.stats.Snapshot() }

// Close releases every provider.
func (s *Service) Close() error {
	var errs []error
	for _, p := range s.providers {
		if err := p.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.engine.Name(), err))
		}
	}
	return errors.Join(errs...)
}
