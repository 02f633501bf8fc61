package client

import "sync"

// Session holds the active snapshot in memory and mirrors every change to
// its Store. Only the sign-in flow and sign-out write it.
type Session struct {
	mu      sync.RWMutex
	store   Store
	current *Snapshot
}

// NewSession returns a logged-out session over store. Call Restore to load a
// persisted snapshot.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Restore loads the persisted snapshot. Absence leaves the session logged
// out and is not an error.
func (s *Session) Restore() (Snapshot, bool, error) {
	snap, ok, err := s.store.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || !ok {
		s.current = nil
		return Snapshot{}, false, err
	}
	s.current = &snap
	return snap, true, nil
}

// Save replaces the snapshot.
func (s *Session) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(snap); err != nil {
		return err
	}
	s.current = &snap
	return nil
}

// Clear signs the session out. The server keeps no session state, so this is
// the whole of logout.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return s.store.Clear()
}

// Current returns the active snapshot, if any.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Snapshot{}, false
	}
	return *s.current, true
}

// Token returns the access token or "" when signed out.
func (s *Session) Token() string {
	snap, _ := s.Current()
	return snap.Token
}

// setToken swaps the access token after a refresh, keeping the user.
func (s *Session) setToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	next := *s.current
	next.Token = token
	if err := s.store.Save(next); err != nil {
		return err
	}
	s.current = &next
	return nil
}
