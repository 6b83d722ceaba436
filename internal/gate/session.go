package gate

import (
	"context"
	"sync"
	"time"
)

// Action is the admin flow a session belongs to.
type Action string

const (
	ActionAddChannel    Action = "add_channel"
	ActionRemoveChannel Action = "remove_channel"
	ActionAddLink       Action = "add_link"
	ActionRemoveLink    Action = "remove_link"
)

// Step is the point a flow is waiting at.
type Step string

const (
	StepWaitingInput     Step = "waiting_input"
	StepWaitingSelection Step = "waiting_selection"
)

// Session is the conversation state of one admin's in-flight flow.
// At most one session exists per user; absence means idle.
type Session struct {
	Action Action `json:"action"`
	Step   Step   `json:"step"`
	Page   int    `json:"page"`
}

// SessionStore holds per-user conversation state. Starting a new flow
// overwrites any unfinished one; Get returns nil for absent or expired
// sessions.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Update(ctx context.Context, userID int64, patch func(*Session)) error
	Delete(ctx context.Context, userID int64) error
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemorySessionStore is an in-process SessionStore with TTL eviction.
// The clock is injected so expiry is testable.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration, now func() time.Time) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{
		entries: make(map[int64]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (s *MemorySessionStore) Get(_ context.Context, userID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return nil, nil
	}
	if entry.expires.Before(s.now()) {
		delete(s.entries, userID)
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (s *MemorySessionStore) Set(_ context.Context, userID int64, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = memoryEntry{session: sess, expires: s.now().Add(s.ttl)}
	return nil
}

// Update applies patch to a live session, refreshing its TTL. Missing
// or expired sessions are left untouched.
func (s *MemorySessionStore) Update(_ context.Context, userID int64, patch func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok || entry.expires.Before(s.now()) {
		delete(s.entries, userID)
		return nil
	}
	patch(&entry.session)
	entry.expires = s.now().Add(s.ttl)
	s.entries[userID] = entry
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userID)
	return nil
}

// SweepExpired drops expired sessions and returns how many were removed.
func (s *MemorySessionStore) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if entry.expires.Before(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
