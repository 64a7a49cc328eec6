package assistbot

import (
	"context"
	"sync"
)

// ──────────────────────────────────────────────
// Session Store — per-user ephemeral quiz state
// ──────────────────────────────────────────────

// State is the conversation state recorded in a Session. A user with no
// session is in the main menu; only the test flow is session-backed.
type State int

const (
	// StateTestSelection: the user is choosing a test from the list.
	StateTestSelection State = iota + 1
	// StateInProgress: a test is running; Index and Scores track progress.
	StateInProgress
)

// Session is the per-user progress record for an in-flight questionnaire.
// Invariants: Index is in [0, question count]; len(Scores) == Index; every
// score lies in the option value range after inversion.
type Session struct {
	UserID int64 `json:"user_id"`
	State  State `json:"state"`
	Index  int   `json:"index"`
	Scores []int `json:"scores"`
}

// Clone returns a deep copy. Stores hand out copies so that no two callers
// ever alias the same mutable session.
func (s *Session) Clone() *Session {
	c := *s
	c.Scores = append([]int(nil), s.Scores...)
	return &c
}

// SessionStore is the pluggable backend for session state.
//
// Operations for one userID are linearizable with respect to each other;
// sessions for distinct users are fully independent and never share mutable
// state. There is no ordering guarantee across users.
type SessionStore interface {
	// Get returns the user's session, or nil when absent.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Create stores and returns a fresh test-selection session with index 0
	// and no scores, overwriting any prior session for the user.
	Create(ctx context.Context, userID int64) (*Session, error)
	// Save persists the session under its UserID.
	Save(ctx context.Context, sess *Session) error
	// Remove deletes the user's session, if any.
	Remove(ctx context.Context, userID int64) error
}

// MemorySessionStore is a process-memory SessionStore. Entries live in a
// sync.Map so map access is atomic per key; no lock spans unrelated users.
// Data is lost on restart.
type MemorySessionStore struct {
	sessions sync.Map // int64 -> *Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Get(_ context.Context, userID int64) (*Session, error) {
	v, ok := s.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	return v.(*Session).Clone(), nil
}

func (s *MemorySessionStore) Create(_ context.Context, userID int64) (*Session, error) {
	sess := &Session{UserID: userID, State: StateTestSelection}
	s.sessions.Store(userID, sess.Clone())
	return sess, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *Session) error {
	s.sessions.Store(sess.UserID, sess.Clone())
	return nil
}

func (s *MemorySessionStore) Remove(_ context.Context, userID int64) error {
	s.sessions.Delete(userID)
	return nil
}
