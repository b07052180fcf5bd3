package tasks

import (
	"slices"
	"sync"

	"github.com/desertthunder/vibelist/internal/models"
)

// Session owns the single mutable handle to the working playlist.
//
// Every change goes through [Session.Apply], which swaps the handle atomically and publishes the new snapshot to
// subscribers. Readers never observe a partially updated playlist.
type Session struct {
	mu      sync.Mutex
	current models.Playlist
	subs    []chan models.Playlist
	closed  bool
}

// NewSession starts a session holding p.
func NewSession(p models.Playlist) *Session {
	return &Session{current: p}
}

// Snapshot returns the current playlist.
func (s *Session) Snapshot() models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Apply replaces the playlist with f(current) and returns the result. f must be pure.
func (s *Session) Apply(f func(models.Playlist) models.Playlist) models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = f(s.current)
	for _, sub := range s.subs {
		publish(sub, s.current)
	}
	return s.current
}

// Subscribe returns a channel that receives the latest snapshot after each change.
//
// Slow subscribers only ever see the most recent snapshot; intermediate ones are dropped.
func (s *Session) Subscribe() <-chan models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.Playlist, 1)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Session) Unsubscribe(ch <-chan models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub == ch {
			close(sub)
			s.subs = slices.Delete(s.subs, i, i+1)
			return
		}
	}
}

// Close closes every subscription. Apply keeps working afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		close(sub)
	}
	s.subs = nil
	s.closed = true
}

// publish delivers p, replacing any snapshot the subscriber has not read yet.
func publish(ch chan models.Playlist, p models.Playlist) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}
