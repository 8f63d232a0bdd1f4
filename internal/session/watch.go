package session

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event reports an externally observed change to the persisted session,
// e.g. a logout issued from another terminal.
type Event struct {
	TokenPresent bool
}

// Watch observes the persisted session file and emits an Event whenever
// another process changes it. The store's in-memory token follows the disk
// copy so long-running views drop their session when it is revoked
// elsewhere. The watcher stops when ctx is canceled.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: saves go through rename, and
	// logout removes the file entirely.
	if err := watcher.Add(filepath.Dir(s.persist.Path())); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan Event, 1)
	go func() {
		defer watcher.Close()
		defer close(events)
		target := s.persist.Path()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != target {
					continue
				}
				s.reloadFromDisk(events)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Debug("session watch error", zap.Error(err))
			}
		}
	}()
	return events, nil
}

// reloadFromDisk syncs the in-memory token with the persisted copy and
// notifies the channel when the authentication state flipped.
func (s *Store) reloadFromDisk(events chan<- Event) {
	token, err := s.persist.Load()
	if err != nil {
		token = ""
	}

	s.mu.Lock()
	changed := s.hydration == Hydrated && s.token != token
	if changed {
		s.token = token
	}
	s.mu.Unlock()

	if changed {
		select {
		case events <- Event{TokenPresent: token != ""}:
		default:
		}
	}
}
