package remote

import (
	"strconv"
	"time"

	"github.com/OBress/CanvAI/internal/shared/types"
)

// Wire schema of the backend API. Session and message ids travel as JSON
// integers and become decimal strings locally; message fields use the
// backend's sender/message/timestamp names.

type wireSession struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type wireMessage struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type sessionsEnvelope struct {
	Sessions []wireSession `json:"sessions"`
}

type sessionEnvelope struct {
	Session wireSession `json:"session"`
}

type messagesEnvelope struct {
	Messages []wireMessage `json:"messages"`
}

type messageEnvelope struct {
	Message wireMessage `json:"message"`
}

type keysEnvelope struct {
	Keys types.APIKeys `json:"keys"`
}

func (w wireSession) toSession() types.Session {
	created := parseTime(w.CreatedAt)
	updated := parseTime(w.UpdatedAt)
	if updated.IsZero() {
		updated = created
	}
	return types.Session{
		ID:        strconv.FormatInt(w.ID, 10),
		Origin:    types.OriginBackend,
		UserID:    w.UserID,
		Title:     w.Title,
		CreatedAt: created,
		UpdatedAt: updated,
		Messages:  []types.Message{},
	}
}

func (w wireMessage) toMessage() types.Message {
	return types.Message{
		ID:        strconv.FormatInt(w.ID, 10),
		Role:      types.ParseRole(w.Sender),
		Content:   w.Message,
		CreatedAt: parseTime(w.Timestamp),
	}
}

// parseTime reads the backend's RFC3339 UTC timestamps; malformed values
// decay to the zero time rather than failing the whole payload.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
