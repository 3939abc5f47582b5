// Package voices holds the process-wide voice table. Requests only read it;
// the table is swapped wholesale when an overlay file is reloaded.
package voices

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/odiadev/naijatts/internal/speech/engine"
)

// DefaultID is the profile unknown voice ids resolve to.
const DefaultID = "nigerian-female"

// Builtin returns the compiled-in profiles. Callers get a fresh copy.
func Builtin() []engine.Profile {
	return []engine.Profile{
		{
			ID:           "nigerian-female",
			Name:         "Nigerian Female",
			Language:     "English (Nigerian)",
			Gender:       "female",
			Dialect:      "en-GB",
			SpeakingRate: 0.9,
			Aliases:      []string{"naija_female"},
			Backends: map[string]string{
				"upstream":   "naija_female",
				"elevenlabs": "21m00Tcm4TlvDq8ikWAM",
				"google":     "en-GB-Neural2-A",
				"openai":     "nova",
			},
		},
		{
			ID:           "nigerian-male",
			Name:         "Nigerian Male",
			Language:     "English (Nigerian)",
			Gender:       "male",
			Dialect:      "en-GB",
			SpeakingRate: 0.9,
			Aliases:      []string{"naija_male"},
			Backends: map[string]string{
				"upstream":   "naija_male",
				"elevenlabs": "pNInz6obpgDQGcFmaJgB",
				"google":     "en-GB-Neural2-B",
				"openai":     "onyx",
			},
		},
	}
}

// Table resolves voice ids and aliases to profiles.
type Table struct {
	mu       sync.RWMutex
	profiles []engine.Profile
	index    map[string]int
}

// NewTable builds a table from profiles. The list must contain DefaultID.
func NewTable(profiles []engine.Profile) (*Table, error) {
	t := &Table{}
	if err := t.Replace(profiles); err != nil {
		return nil, err
	}
	return t, nil
}

// NewBuiltinTable returns a table holding only the built-in profiles.
func NewBuiltinTable() *Table {
	t, err := NewTable(Builtin())
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the profile for id or one of its aliases. Matching is
// case-insensitive; unknown and empty ids yield the default profile.
func (t *Table) Resolve(id string) engine.Profile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i, ok := t.index[normalizeID(id)]; ok {
		return t.profiles[i]
	}
	return t.profiles[t.index[DefaultID]]
}

// Lookup reports whether id or alias names a known profile.
func (t *Table) Lookup(id string) (engine.Profile, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[normalizeID(id)]
	if !ok {
		return engine.Profile{}, false
	}
	return t.profiles[i], true
}

// List returns the profiles in table order.
func (t *Table) List() []engine.Profile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]engine.Profile, len(t.profiles))
	copy(out, t.profiles)
	return out
}

// Replace validates profiles and swaps them in. On error the table is
// unchanged.
func (t *Table) Replace(profiles []engine.Profile) error {
	index := make(map[string]int, len(profiles)*2)
	cp := make([]engine.Profile, 0, len(profiles))
	for _, p := range profiles {
		id := normalizeID(p.ID)
		if id == "" {
			return errors.New("voice profile without id")
		}
		if _, dup := index[id]; dup {
			return fmt.Errorf("duplicate voice id or alias %q", p.ID)
		}
		p.ID = id
		index[id] = len(cp)
		for _, a := range p.Aliases {
			a = normalizeID(a)
			if a == "" {
				continue
			}
			if _, dup := index[a]; dup {
				return fmt.Errorf("duplicate voice id or alias %q", a)
			}
			index[a] = len(cp)
		}
		cp = append(cp, p)
	}
	if i, ok := index[DefaultID]; !ok || cp[i].ID != DefaultID {
		return fmt.Errorf("voice table must define %q", DefaultID)
	}

	t.mu.Lock()
	t.profiles = cp
	t.index = index
	t.mu.Unlock()
	return nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
