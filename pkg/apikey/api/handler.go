package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/odiadev/naijatts/pkg/apikey"
	"github.com/odiadev/naijatts/pkg/events"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// Store is the persistence the admin API needs.
type Store interface {
	Create(ctx context.Context, k *apikey.APIKey) error
	ListAll(ctx context.Context) ([]apikey.APIKey, error)
	Revoke(ctx context.Context, prefix string) (bool, error)
}

// Handler provides REST endpoints for API key administration. Every route
// requires "Authorization: Bearer <admin token>".
type Handler struct {
	store      Store
	signer     *apikey.Signer
	publisher  *events.Publisher
	adminToken string
}

// NewHandler creates a new key admin handler. An empty adminToken disables
// every route.
func NewHandler(store Store, signer *apikey.Signer, publisher *events.Publisher, adminToken string) *Handler {
	return &Handler{store: store, signer: signer, publisher: publisher, adminToken: adminToken}
}

// RegisterRoutes registers all key admin routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/admin/keys", h.requireAdmin(h.Issue))
	mux.HandleFunc("GET /api/v1/admin/keys", h.requireAdmin(h.List))
	mux.HandleFunc("POST /api/v1/admin/keys/revoke", h.requireAdmin(h.Revoke))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.adminToken == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func toKeyResponse(k *apikey.APIKey) KeyResponse {
	resp := KeyResponse{
		ID:          k.ID,
		Name:        k.Name,
		Type:        k.Type,
		Prefix:      k.Prefix,
		Scopes:      []string(k.Scopes),
		RatePerMin:  k.RatePerMin,
		DailyQuota:  k.DailyQuota,
		DomainAllow: []string(k.DomainAllow),
		CreatedAt:   k.CreatedAt.Format(time.RFC3339),
	}
	if k.RevokedAt.Valid {
		resp.RevokedAt = k.RevokedAt.Time.Format(time.RFC3339)
	}
	if k.LastUsedAt.Valid {
		resp.LastUsedAt = k.LastUsedAt.Time.Format(time.RFC3339)
	}
	return resp
}

// Issue handles POST /api/v1/admin/keys
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req IssueKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		req.Name = "Unnamed"
	}
	if req.Type == "" {
		req.Type = apikey.TypePublishable
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{"tts:read"}
	}
	ratePerMin := 60
	if req.RatePerMin != nil {
		ratePerMin = *req.RatePerMin
	}
	dailyQuota := 2000
	if req.DailyQuota != nil {
		dailyQuota = *req.DailyQuota
	}

	full, prefix, hash, err := h.signer.GenerateKey(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	k := &apikey.APIKey{
		Name:        req.Name,
		Type:        req.Type,
		Prefix:      prefix,
		Hash:        hash,
		Scopes:      apikey.StringList(req.Scopes),
		RatePerMin:  ratePerMin,
		DailyQuota:  dailyQuota,
		DomainAllow: apikey.StringList(req.Domains),
		CreatedBy:   "admin",
	}
	if err := h.store.Create(r.Context(), k); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue key")
		return
	}

	h.emit(r.Context(), events.KeyIssued, events.KeyData{KeyID: k.ID, Prefix: prefix, Name: k.Name})
	writeJSON(w, http.StatusCreated, IssueKeyResponse{APIKey: full, Prefix: prefix})
}

// List handles GET /api/v1/admin/keys
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}

	resp := make([]KeyResponse, 0, len(keys))
	for i := range keys {
		resp = append(resp, toKeyResponse(&keys[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Revoke handles POST /api/v1/admin/keys/revoke
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req RevokeKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prefix == "" {
		writeError(w, http.StatusBadRequest, "missing_prefix")
		return
	}

	changed, err := h.store.Revoke(r.Context(), req.Prefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to revoke key")
		return
	}
	if changed {
		h.emit(r.Context(), events.KeyRevoked, events.KeyData{Prefix: req.Prefix})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) emit(ctx context.Context, et events.EventType, data events.KeyData) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Emit(ctx, et, "", data); err != nil {
		slog.WarnContext(ctx, "key event publish failed", slog.String("error", err.Error()))
	}
}
