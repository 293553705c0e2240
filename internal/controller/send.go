package controller

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/OBress/CanvAI/internal/shared/id"
	"github.com/OBress/CanvAI/internal/shared/types"
)

// SendMessage is the core write path. The user message is applied locally
// before any network round-trip; remote sync runs afterwards and never
// rolls the optimistic state back. Returns the provisional message, or nil
// when the content is blank.
func (c *Controller) SendMessage(ctx context.Context, content string) *types.Message {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	now := c.now()
	provisional := types.Message{
		ID:        id.NewMessageID(),
		Role:      types.RoleUser,
		Content:   content,
		CreatedAt: now,
	}

	// Resolve the working session: the active one, or a fresh local
	// session when nothing is active yet.
	c.mu.Lock()
	working, ok := c.sessions[c.activeID]
	if !ok {
		working = types.NewLocalSession(id.NewLocalSessionID(), DefaultTitle, now)
		c.sessions[working.ID] = working
	}
	workingID := working.ID
	wasBackend := working.Backend()
	previousTitle := working.Title
	firstMessage := len(working.Messages) == 0
	c.mu.Unlock()

	title := previousTitle
	if firstMessage && previousTitle == DefaultTitle {
		title = FormatTitle(content)
	}

	// A local-only session gets one shot at backend creation per send.
	// Failure leaves it local-only; nothing else is synced this round.
	sessionID := workingID
	backend := wasBackend
	if !wasBackend {
		created, err := c.remote.CreateSession(ctx, c.userID, title)
		if err != nil || created == nil {
			c.log.Warn("session create failed; message stays local",
				zap.String("session_id", workingID), zap.Error(err))
		} else {
			sessionID = created.ID
			backend = true
		}
	}

	// Apply the optimistic update against the latest snapshot. Re-keying
	// moves the session to its backend id, keeping the message list.
	c.mu.Lock()
	session, ok := c.sessions[workingID]
	if !ok {
		session = types.NewLocalSession(workingID, title, now)
	}
	if sessionID != workingID {
		delete(c.sessions, workingID)
		session.ID = sessionID
		session.Origin = types.OriginBackend
	}
	session.Title = title
	session.Messages = append(session.Messages, provisional)
	session.Touch(now)
	c.sessions[session.ID] = session
	c.activeID = session.ID
	c.persistLocked()
	c.mu.Unlock()

	if backend {
		pushTitle := wasBackend && title != previousTitle
		syncCtx := context.WithoutCancel(ctx)
		c.spawn(func() {
			c.syncSend(syncCtx, sessionID, provisional, title, pushTitle)
		})
	}

	sent := provisional
	return &sent
}

// syncSend pushes one optimistic message to the backend, swaps in the
// confirmed copy, and requests an assistant reply. Every failure here is
// logged and leaves the optimistic state as the final state.
func (c *Controller) syncSend(ctx context.Context, sessionID string, provisional types.Message, title string, pushTitle bool) {
	confirmed, err := c.remote.AppendMessage(ctx, sessionID, provisional)
	if err != nil {
		c.log.Warn("message sync failed; keeping provisional message",
			zap.String("session_id", sessionID), zap.Error(err))
	} else if confirmed != nil {
		c.replaceMessage(sessionID, provisional.ID, *confirmed)
	}

	if pushTitle {
		if err := c.remote.UpdateTitle(ctx, sessionID, title); err != nil {
			c.log.Warn("title sync failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	reply, err := c.remote.RequestAssistantReply(ctx, sessionID)
	if err != nil {
		c.log.Warn("assistant reply failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if reply == nil {
		return
	}

	c.mu.Lock()
	if session, ok := c.sessions[sessionID]; ok {
		session.Messages = append(session.Messages, *reply)
		session.Touch(c.now())
		c.persistLocked()
	}
	c.mu.Unlock()
}

// replaceMessage swaps the provisional message for the backend-confirmed
// one at the same position. When the provisional copy is gone (e.g. the
// history was overwritten by a fetch), the confirmed message is appended
// instead.
func (c *Controller) replaceMessage(sessionID, provisionalID string, confirmed types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return
	}

	_, idx, found := lo.FindIndexOf(session.Messages, func(m types.Message) bool {
		return m.ID == provisionalID
	})
	if found {
		session.Messages[idx] = confirmed
	} else {
		session.Messages = append(session.Messages, confirmed)
	}
	c.persistLocked()
}
