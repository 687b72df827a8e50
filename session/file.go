package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	trackpro "github.com/chimerakang/trackpro-go"
)

// FilePersister keeps the session in a JSON file readable only by the owner.
type FilePersister struct {
	path string
}

var _ Persister = (*FilePersister)(nil)

// NewFilePersister creates a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the file location.
func (p *FilePersister) Path() string { return p.path }

// Load reads the session file.
func (p *FilePersister) Load(_ context.Context) (trackpro.Session, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return trackpro.Session{}, ErrNotPersisted
	}
	if err != nil {
		return trackpro.Session{}, fmt.Errorf("read %s: %w", p.path, err)
	}

	var s trackpro.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return trackpro.Session{}, fmt.Errorf("decode %s: %w", p.path, err)
	}
	return s, nil
}

// Save writes the session through a temporary file and rename.
func (p *FilePersister) Save(_ context.Context, s trackpro.Session) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// Clear deletes the session file.
func (p *FilePersister) Clear(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p.path, err)
	}
	return nil
}
