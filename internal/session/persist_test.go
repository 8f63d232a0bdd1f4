package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/vitrinecli/vitrine/internal/session"
)

// Token persistence round-trip: any non-empty token saved can be loaded back
// unchanged.
func TestTokenPersistenceRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	persist, err := session.NewPersister()
	if err != nil {
		t.Fatalf("NewPersister: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		token := rapid.StringMatching(`[A-Za-z0-9._-]{1,200}`).Draw(t, "token")

		if err := persist.Save(token); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := persist.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got != token {
			t.Fatalf("round trip: got %q, want %q", got, token)
		}
	})
}

func TestLoadWithoutFileReturnsErrNoToken(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	persist, err := session.NewPersister()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := persist.Load(); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("got %v, want ErrNoToken", err)
	}
}

func TestDeleteThenLoadReturnsErrNoToken(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	persist, err := session.NewPersister()
	if err != nil {
		t.Fatal(err)
	}
	if err := persist.Save("tok"); err != nil {
		t.Fatal(err)
	}
	if err := persist.Delete(); err != nil {
		t.Fatal(err)
	}
	if _, err := persist.Load(); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("got %v, want ErrNoToken", err)
	}
	// Deleting twice is fine.
	if err := persist.Delete(); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

// Only the token survives: the persisted file must contain nothing besides
// the token field.
func TestPersistedSubsetIsTokenOnly(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	persist, err := session.NewPersister()
	if err != nil {
		t.Fatal(err)
	}
	if err := persist.Save("tok"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(tmp, "vitrine", "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"token":"tok"}` {
		t.Errorf("persisted payload = %s, want token only", data)
	}
}
