package voices

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/odiadev/naijatts/internal/speech/engine"
)

type voiceFile struct {
	Voices []engine.Profile `yaml:"voices"`
}

// LoadFile parses a YAML voice file of the form
//
//	voices:
//	  - id: nigerian-female
//	    name: Nigerian Female
//	    backends:
//	      google: en-GB-Neural2-C
func LoadFile(path string) ([]engine.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f voiceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return f.Voices, nil
}

// Overlay merges file over base. Profiles with a matching id replace the
// base entry in place; new ids are appended.
func Overlay(base, file []engine.Profile) []engine.Profile {
	out := make([]engine.Profile, len(base))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, p := range out {
		pos[normalizeID(p.ID)] = i
	}
	for _, p := range file {
		if i, ok := pos[normalizeID(p.ID)]; ok {
			out[i] = p
			continue
		}
		pos[normalizeID(p.ID)] = len(out)
		out = append(out, p)
	}
	return out
}

// LoadInto reads path, overlays it on the built-in profiles and swaps the
// result into t.
func LoadInto(t *Table, path string) error {
	file, err := LoadFile(path)
	if err != nil {
		return fmt.Errorf("load voices %q: %w", path, err)
	}
	if err := t.Replace(Overlay(Builtin(), file)); err != nil {
		return fmt.Errorf("load voices %q: %w", path, err)
	}
	return nil
}

// WatchAndReload watches the directory holding path and reloads the table
// whenever the file is written or replaced. A bad file is logged and the
// previous table kept. This blocks until ctx is done.
func WatchAndReload(ctx context.Context, t *Table, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the parent.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if err := LoadInto(t, path); err != nil {
					slog.WarnContext(ctx, "voice table reload failed", slog.String("error", err.Error()))
					continue
				}
				slog.InfoContext(ctx, "voice table reloaded", slog.Int("voices", len(t.List())))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
