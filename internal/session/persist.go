package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoToken is returned by Load when no token is persisted.
var ErrNoToken = errors.New("no persisted token")

// Persister is the serialization boundary for the session. Only the token
// crosses it; loading/error/hydration flags are volatile by design.
type Persister interface {
	Save(token string) error
	Load() (string, error) // returns ErrNoToken if none exists
	Delete() error
	Path() string
}

// persistedState is the minimal subset of Store state that survives a
// restart. Mapping full state down to this struct at save time (and back at
// load time) is the only persistence path.
type persistedState struct {
	Token string `json:"token"`
}

// diskPersister is the concrete Persister that writes to the XDG data
// directory.
type diskPersister struct {
	path string // full path to session.json
}

// NewPersister returns a Persister backed by the XDG data directory.
// Path: $XDG_DATA_HOME/vitrine/session.json or ~/.local/share/vitrine/session.json
func NewPersister() (Persister, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskPersister{path: filepath.Join(dir, "session.json")}, nil
}

// dataDir returns the vitrine-specific XDG data directory.
func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "vitrine"), nil
}

// Save writes the token atomically via a temp file + os.Rename.
func (d *diskPersister) Save(token string) error {
	data, err := json.Marshal(persistedState{Token: token})
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(d.path), "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}

	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// Load reads the persisted token. Returns ErrNoToken if the file does not
// exist or holds no token.
func (d *diskPersister) Load() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read session state: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("failed to parse session state: %w", err)
	}
	if state.Token == "" {
		return "", ErrNoToken
	}
	return state.Token, nil
}

// Delete removes the session file from disk.
func (d *diskPersister) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// Path returns the session file location, for watchers and diagnostics.
func (d *diskPersister) Path() string { return d.path }
