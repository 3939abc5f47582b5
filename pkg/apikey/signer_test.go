package apikey

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	s, err := NewSigner("pepper")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	full, prefix, hash, err := s.GenerateKey(TypePublishable)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if !strings.HasPrefix(full, "pk_live_"+prefix+"_") {
		t.Errorf("key %q does not carry prefix %q", full, prefix)
	}
	if len(prefix) != 8 {
		t.Errorf("prefix length = %d, want 8", len(prefix))
	}
	if got, ok := ParsePrefix(full); !ok || got != prefix {
		t.Errorf("ParsePrefix = %q, %v", got, ok)
	}
	if !s.Verify(full, hash) {
		t.Error("generated key does not verify against its hash")
	}
	if s.Verify(full+"x", hash) {
		t.Error("tampered key verified")
	}

	other, _, _, _ := s.GenerateKey(TypePublishable)
	if other == full {
		t.Error("keys should be random")
	}
}

func TestGenerateKeyRejectsUnknownType(t *testing.T) {
	s, _ := NewSigner("pepper")
	if _, _, _, err := s.GenerateKey("xx"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestHashDependsOnPepper(t *testing.T) {
	a, _ := NewSigner("one")
	b, _ := NewSigner("two")
	if a.Hash("pk_live_abc_def") == b.Hash("pk_live_abc_def") {
		t.Error("hash ignores pepper")
	}
	if _, err := NewSigner(""); err == nil {
		t.Error("empty pepper accepted")
	}
}

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		in     string
		prefix string
		ok     bool
	}{
		{"pk_live_abcd1234_secret", "abcd1234", true},
		{"sk_live_abcd1234_sec_ret", "abcd1234", true},
		{"demo", "", false},
		{"pk_test_abcd1234_secret", "", false},
		{"xx_live_abcd1234_secret", "", false},
		{"pk_live__secret", "", false},
		{"pk_live_abcd1234_", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePrefix(tt.in)
		if got != tt.prefix || ok != tt.ok {
			t.Errorf("ParsePrefix(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.prefix, tt.ok)
		}
	}
}
