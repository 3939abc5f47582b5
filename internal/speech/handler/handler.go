// Package handler exposes the speech chain over plain HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/odiadev/naijatts/internal/httputil"
	"github.com/odiadev/naijatts/internal/metrics"
	"github.com/odiadev/naijatts/internal/speech/chain"
	"github.com/odiadev/naijatts/internal/speech/registry"
	"github.com/odiadev/naijatts/pkg/apikey"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// Options configures a Handler.
type Options struct {
	ServiceName string
	// Verifier checks API keys. Nil accepts every request.
	Verifier apikey.Verifier
	Limiter  *apikey.Limiter
	Metrics  *metrics.Metrics
	// DefaultKey is used when the request carries no key.
	DefaultKey string
	// FailOpen admits requests when the verifier itself fails.
	FailOpen bool
}

// Handler serves /speak, /v1/tts, /voices, /backends, /health and /metrics.
type Handler struct {
	svc  *chain.Service
	opts Options
	now  func() time.Time
}

// NewHandler creates a new speech HTTP handler.
func NewHandler(svc *chain.Service, opts Options) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "naijatts"
	}
	return &Handler{svc: svc, opts: opts, now: time.Now}
}

// RegisterRoutes registers all speech routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /speak", h.Speak)
	mux.HandleFunc("POST /speak", h.Speak)
	mux.HandleFunc("POST /v1/tts", h.Speak)
	mux.HandleFunc("GET /voices", h.Voices)
	mux.HandleFunc("GET /backends", h.Backends)
	mux.HandleFunc("GET /health", h.Health)
	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", h.opts.Metrics.Handler())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// Speak handles GET|POST /speak and POST /v1/tts
func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SpeakRequest
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		req.Text = q.Get("text")
		req.Voice = q.Get("voice")
	}

	grant, ok := h.authorize(w, r, req.APIKey)
	if !ok {
		return
	}
	if h.opts.Limiter != nil && !h.opts.Limiter.Allow(grant.Prefix, grant.RatePerMin) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	res, err := h.svc.Speak(ctx, req.Text, req.Voice)
	switch {
	case errors.Is(err, chain.ErrTextRequired):
		writeError(w, http.StatusBadRequest, "Text required")
		return
	case errors.Is(err, chain.ErrTextTooLong):
		writeError(w, http.StatusRequestEntityTooLarge, "Text too long")
		return
	case errors.Is(err, chain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chain.ErrShortAudio):
		slog.ErrorContext(ctx, "speech generation returned too little audio",
			slog.String("request_id", httputil.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Audio generation failed")
		return
	case err != nil:
		slog.ErrorContext(ctx, "speech generation failed",
			slog.String("request_id", httputil.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "TTS generation failed")
		return
	}

	art := res.Artifact
	if len(art.Audio) < chain.MinAudioBytes {
		writeError(w, http.StatusInternalServerError, "Audio generation failed")
		return
	}

	cacheStatus := "MISS"
	if res.CacheHit {
		cacheStatus = "HIT"
	}
	hdr := w.Header()
	hdr.Set("Content-Type", art.Format.ContentType())
	hdr.Set("Content-Disposition", `inline; filename="speech.`+string(art.Format)+`"`)
	hdr.Set("Content-Length", strconv.Itoa(len(art.Audio)))
	hdr.Set("X-Audio-Size", strconv.Itoa(len(art.Audio)))
	hdr.Set("X-Engine", art.ProducedBy)
	hdr.Set("X-Voice", res.Voice.ID)
	hdr.Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(art.Audio)
	}
}

// authorize resolves and verifies the caller's key. It writes the error
// response itself and reports false when the request must stop.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, bodyKey string) (*apikey.Grant, bool) {
	if h.opts.Verifier == nil {
		return &apikey.Grant{}, true
	}

	key := firstNonEmpty(
		r.Header.Get("X-API-Key"),
		r.Header.Get("X-Odia-Key"),
		r.URL.Query().Get("api_key"),
		bodyKey,
		h.opts.DefaultKey,
	)

	ctx := r.Context()
	grant, err := h.opts.Verifier.Verify(ctx, key, r.Header.Get("Origin"))
	if err == nil {
		return grant, true
	}

	var ke *apikey.KeyError
	if errors.As(err, &ke) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid API key", Reason: ke.Reason})
		return nil, false
	}

	if h.opts.FailOpen {
		slog.WarnContext(ctx, "api key verification failed, admitting request",
			slog.String("request_id", httputil.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		return &apikey.Grant{Name: "fail-open"}, true
	}
	slog.ErrorContext(ctx, "api key verification failed",
		slog.String("request_id", httputil.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "key verification failed")
	return nil, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Voices handles GET /voices
func (h *Handler) Voices(w http.ResponseWriter, _ *http.Request) {
	profiles := h.svc.Voices().List()
	resp := VoicesResponse{Voices: make([]VoiceResponse, 0, len(profiles)), Total: len(profiles)}
	for _, p := range profiles {
		resp.Voices = append(resp.Voices, VoiceResponse{ID: p.ID, Name: p.Name, Language: p.Language})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Backends handles GET /backends
func (h *Handler) Backends(w http.ResponseWriter, _ *http.Request) {
	avail := h.svc.Availability()
	breakers := h.svc.Breakers()

	resp := BackendsResponse{Order: h.svc.Providers()}
	for _, name := range registry.TTS.List() {
		_, configured := avail[name]
		resp.Backends = append(resp.Backends, BackendInfo{
			Name:       name,
			Configured: configured,
			Available:  avail[name],
			Breaker:    breakers[name],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Service:   h.opts.ServiceName,
		Status:    "operational",
		Engines:   h.svc.Availability(),
		Providers: h.svc.Providers(),
		Breakers:  h.svc.Breakers(),
		Stats:     h.svc.Stats(),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
