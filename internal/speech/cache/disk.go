package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/odiadev/naijatts/internal/speech/engine"
)

// lookupOrder is the order file extensions are tried on Get.
var lookupOrder = []engine.Format{engine.FormatMP3, engine.FormatWAV}

// engineExt names the sidecar file holding the producing engine.
const engineExt = ".engine"

// DiskStore keeps one file per entry named <key>.<format>, next to a
// <key>.engine file naming the engine that produced it.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %q: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(key string, f engine.Format) string {
	return filepath.Join(s.dir, key+"."+string(f))
}

func (s *DiskStore) Get(_ context.Context, key string) (*engine.Artifact, error) {
	for _, f := range lookupOrder {
		data, err := os.ReadFile(s.path(key, f))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read cache entry: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		return &engine.Artifact{Audio: data, Format: f, ProducedBy: s.producer(key)}, nil
	}
	return nil, ErrMiss
}

func (s *DiskStore) producer(key string) string {
	name, err := os.ReadFile(filepath.Join(s.dir, key+engineExt))
	if err != nil || len(name) == 0 {
		return ProducedBy
	}
	return string(name)
}

// Put writes the engine sidecar and then the audio, each to a temporary
// file renamed into place, so readers never observe a partial entry.
func (s *DiskStore) Put(_ context.Context, key string, art *engine.Artifact) error {
	if art.ProducedBy != "" {
		if err := s.writeFile(key, filepath.Join(s.dir, key+engineExt), []byte(art.ProducedBy)); err != nil {
			return err
		}
	}
	return s.writeFile(key, s.path(key, art.Format), art.Audio)
}

func (s *DiskStore) writeFile(key, dst string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}
