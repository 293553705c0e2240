package types

import "time"

// Origin tags how a session identifier was assigned.
type Origin string

const (
	// OriginLocal marks a session created locally that has no remote counterpart.
	OriginLocal Origin = "local"
	// OriginBackend marks a session whose identifier was assigned by the backend.
	OriginBackend Origin = "backend"
)

// Session represents one conversation thread with its message history.
//
// Messages are kept in insertion order, which is chronological order under
// normal operation. UpdatedAt encodes to RFC3339 UTC, so its string form
// sorts lexicographically in chronological order.
type Session struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// NewLocalSession creates a session with a locally assigned identifier.
func NewLocalSession(id, title string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Origin:    OriginLocal,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

// Backend reports whether the session is backend-confirmed.
func (s *Session) Backend() bool {
	return s.Origin == OriginBackend
}

// Touch bumps the updated timestamp.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing internal state to mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Messages = make([]Message, len(s.Messages))
	copy(dup.Messages, s.Messages)
	return &dup
}

// CloneSessions deep-copies a session map keyed by id.
func CloneSessions(sessions map[string]*Session) map[string]*Session {
	out := make(map[string]*Session, len(sessions))
	for id, s := range sessions {
		out[id] = s.Clone()
	}
	return out
}
