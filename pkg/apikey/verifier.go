package apikey

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/url"
	"strings"
)

// ErrInvalidKey matches every KeyError.
var ErrInvalidKey = errors.New("invalid api key")

// Rejection reasons.
const (
	ReasonBadFormat    = "bad_format"
	ReasonNotFound     = "not_found"
	ReasonRevoked      = "revoked"
	ReasonOriginDenied = "origin_denied"
	ReasonBadSig       = "bad_sig"
)

// KeyError explains why a key was rejected.
type KeyError struct {
	Reason string
}

func (e *KeyError) Error() string { return "invalid api key: " + e.Reason }

func (e *KeyError) Is(target error) bool { return target == ErrInvalidKey }

func reject(reason string) error { return &KeyError{Reason: reason} }

// Grant is what a verified key is allowed to do.
type Grant struct {
	KeyID      string
	Prefix     string
	Name       string
	RatePerMin int
}

// Verifier checks a presented key. Errors that do not match ErrInvalidKey
// are internal failures of the verifier itself.
type Verifier interface {
	Verify(ctx context.Context, key, origin string) (*Grant, error)
}

// StaticVerifier accepts a fixed allow-list.
type StaticVerifier struct {
	keys       []string
	ratePerMin int
}

// NewStaticVerifier accepts keys, each limited to ratePerMin (0 = no limit).
func NewStaticVerifier(keys []string, ratePerMin int) *StaticVerifier {
	cp := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cp = append(cp, k)
		}
	}
	return &StaticVerifier{keys: cp, ratePerMin: ratePerMin}
}

func (v *StaticVerifier) Verify(_ context.Context, key, _ string) (*Grant, error) {
	for _, k := range v.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return &Grant{Prefix: k, Name: "static", RatePerMin: v.ratePerMin}, nil
		}
	}
	return nil, reject(ReasonNotFound)
}

// KeyStore is the lookup side of Repository.
type KeyStore interface {
	GetByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	Touch(ctx context.Context, prefix string) error
}

// StoreVerifier checks issued keys against their stored hash.
type StoreVerifier struct {
	store  KeyStore
	signer *Signer
}

func NewStoreVerifier(store KeyStore, signer *Signer) *StoreVerifier {
	return &StoreVerifier{store: store, signer: signer}
}

func (v *StoreVerifier) Verify(ctx context.Context, key, origin string) (*Grant, error) {
	prefix, ok := ParsePrefix(key)
	if !ok {
		return nil, reject(ReasonBadFormat)
	}

	rec, err := v.store.GetByPrefix(ctx, prefix)
	if errors.Is(err, ErrNotFound) {
		return nil, reject(ReasonNotFound)
	}
	if err != nil {
		return nil, err
	}
	if rec.Revoked() {
		return nil, reject(ReasonRevoked)
	}
	if origin != "" && len(rec.DomainAllow) > 0 && !OriginAllowed(origin, rec.DomainAllow) {
		return nil, reject(ReasonOriginDenied)
	}
	if !v.signer.Verify(key, rec.Hash) {
		return nil, reject(ReasonBadSig)
	}

	if err := v.store.Touch(ctx, prefix); err != nil {
		slog.WarnContext(ctx, "api key touch failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
	return &Grant{KeyID: rec.ID, Prefix: rec.Prefix, Name: rec.Name, RatePerMin: rec.RatePerMin}, nil
}

// OriginAllowed reports whether origin's host is one of domains or a
// subdomain of one.
func OriginAllowed(origin string, domains []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Verifiers tries each verifier in order. A key one verifier does not know
// (not_found, bad_format) falls through to the next; any other rejection
// or internal error stops the search.
type Verifiers []Verifier

func (vs Verifiers) Verify(ctx context.Context, key, origin string) (*Grant, error) {
	err := reject(ReasonNotFound)
	for _, v := range vs {
		var g *Grant
		g, err = v.Verify(ctx, key, origin)
		if err == nil {
			return g, nil
		}
		var ke *KeyError
		if !errors.As(err, &ke) || (ke.Reason != ReasonNotFound && ke.Reason != ReasonBadFormat) {
			return nil, err
		}
	}
	return nil, err
}
