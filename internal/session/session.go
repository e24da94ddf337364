// Package session holds per-user transient state that lives only for the
// server process: currently the pending surprise-day date. Values are
// overwritten, never expired, and reconstructed per session by the client.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Store is a mutex-guarded map of userID to pending surprise date. Last write
// wins when a user races with themselves across tabs.
type Store struct {
	mu    sync.Mutex
	dates map[string]string
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{dates: make(map[string]string)}
}

// SelectSurpriseDate records the user's chosen date. The date must be a valid
// ISO "YYYY-MM-DD" day.
func (s *Store) SelectSurpriseDate(userID, date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates[userID] = date
	return nil
}

// SurpriseDate returns the user's pending date, if one has been selected.
func (s *Store) SurpriseDate(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date, ok := s.dates[userID]
	return date, ok
}
