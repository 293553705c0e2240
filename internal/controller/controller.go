package controller

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/OBress/CanvAI/internal/infrastructure/logging"
	"github.com/OBress/CanvAI/internal/infrastructure/monitoring"
	"github.com/OBress/CanvAI/internal/shared/id"
	"github.com/OBress/CanvAI/internal/shared/types"
	"github.com/OBress/CanvAI/internal/store"
)

// Remote is the backend contract the controller depends on. Every
// operation may fail; the controller downgrades failures to log lines.
type Remote interface {
	FetchSessions(ctx context.Context) ([]types.Session, error)
	FetchMessages(ctx context.Context, sessionID string) ([]types.Message, error)
	CreateSession(ctx context.Context, userID, title string) (*types.Session, error)
	UpdateTitle(ctx context.Context, sessionID, title string) error
	DeleteSession(ctx context.Context, sessionID string) error
	AppendMessage(ctx context.Context, sessionID string, msg types.Message) (*types.Message, error)
	RequestAssistantReply(ctx context.Context, sessionID string) (*types.Message, error)
	FetchKeys(ctx context.Context) (types.APIKeys, error)
	SetKey(ctx context.Context, field, value string) error
}

// Persister is the slice of the persistence adapter the controller uses.
type Persister interface {
	Chats() map[string]*types.Session
	LastSessionID() string
	SetMany(values map[string]any) error
	Keys() types.APIKeys
	SetKeys(keys types.APIKeys) error
	Window() types.WindowState
	SetWindow(window types.WindowState) error
}

// Controller owns the session store and reconciles it with the backend.
type Controller struct {
	store   Persister
	remote  Remote
	log     *logging.Logger
	metrics *monitoring.Metrics
	userID  string
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*types.Session
	activeID string

	bg sync.WaitGroup
}

// New creates a controller. The session map starts empty; call Hydrate to
// load cached state and kick off remote reconciliation.
func New(persister Persister, backend Remote, userID string, log *logging.Logger, metrics *monitoring.Metrics) *Controller {
	if log == nil {
		log = logging.NewNop()
	}
	return &Controller{
		store:    persister,
		remote:   backend,
		log:      log,
		metrics:  metrics,
		userID:   userID,
		now:      time.Now,
		sessions: make(map[string]*types.Session),
	}
}

// Hydrate loads cached sessions and the last-active pointer so the UI is
// usable immediately, then reconciles with the backend in the background.
func (c *Controller) Hydrate(ctx context.Context) {
	chats := c.store.Chats()
	last := c.store.LastSessionID()

	c.mu.Lock()
	c.sessions = chats
	c.activeID = SelectActive(chats, last)
	c.mu.Unlock()

	c.log.Info("hydrated cached sessions",
		zap.Int("count", len(chats)), zap.String("active", c.activeID))

	refreshCtx := context.WithoutCancel(ctx)
	c.spawn(func() { c.refresh(refreshCtx) })
}

// refresh merges the remote session list into the local set. Remote
// failure or an empty result keeps the cached state untouched.
func (c *Controller) refresh(ctx context.Context) {
	remoteSessions, err := c.remote.FetchSessions(ctx)
	if err != nil {
		c.log.Warn("session list fetch failed; keeping cached sessions", zap.Error(err))
		return
	}
	if len(remoteSessions) == 0 {
		c.log.Debug("backend returned no sessions; keeping cached state")
		return
	}

	c.mu.Lock()
	for i := range remoteSessions {
		incoming := remoteSessions[i].Clone()
		if local, ok := c.sessions[incoming.ID]; ok {
			// Cached messages may not have reached the backend yet; an
			// empty remote list must not wipe them.
			if len(local.Messages) > 0 {
				incoming.Messages = local.Messages
			}
			incoming.UpdatedAt = latest(incoming.UpdatedAt, local.UpdatedAt)
		}
		incoming.UpdatedAt = latest(incoming.UpdatedAt, incoming.CreatedAt)
		c.sessions[incoming.ID] = incoming
	}
	c.activeID = SelectActive(c.sessions, c.activeID)
	c.persistLocked()
	active := c.activeID
	c.mu.Unlock()

	c.metrics.IncReconciliation()
	c.log.Info("reconciled sessions with backend",
		zap.Int("remote", len(remoteSessions)), zap.String("active", active))
}

// CreateSession starts a new conversation. The backend is tried first; on
// failure the session is created locally and stays local-only. Either way
// the new session becomes active immediately.
func (c *Controller) CreateSession(ctx context.Context) *types.Session {
	now := c.now()

	var session *types.Session
	created, err := c.remote.CreateSession(ctx, c.userID, DefaultTitle)
	if err != nil || created == nil {
		c.log.Warn("backend session create failed; falling back to local session", zap.Error(err))
		session = types.NewLocalSession(id.NewLocalSessionID(), DefaultTitle, now)
	} else {
		session = created
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
	}
	session.Touch(now)

	c.mu.Lock()
	c.sessions[session.ID] = session
	c.activeID = session.ID
	c.persistLocked()
	c.mu.Unlock()

	return session.Clone()
}

// SelectSession makes the session active. Unknown ids are ignored. For
// backend-confirmed sessions the message history is re-fetched, since the
// backend is authoritative for it.
func (c *Controller) SelectSession(ctx context.Context, sessionID string) {
	c.mu.Lock()
	session, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.activeID = sessionID
	c.persistLocked()
	backend := session.Backend()
	c.mu.Unlock()

	if !backend {
		return
	}

	messages, err := c.remote.FetchMessages(ctx, sessionID)
	if err != nil {
		c.log.Warn("message fetch failed; keeping cached history",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	c.mu.Lock()
	if current, ok := c.sessions[sessionID]; ok {
		current.Messages = messages
		c.persistLocked()
	}
	c.mu.Unlock()
}

// DeleteSession removes a session locally and, for backend sessions,
// fire-and-forgets the remote delete. The last remaining session is never
// deleted.
func (c *Controller) DeleteSession(ctx context.Context, sessionID string) {
	c.mu.Lock()
	session, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return
	}
	if len(c.sessions) == 1 {
		c.mu.Unlock()
		c.log.Debug("refusing to delete the last session", zap.String("session_id", sessionID))
		return
	}
	backend := session.Backend()
	delete(c.sessions, sessionID)
	if c.activeID == sessionID {
		c.activeID = SelectActive(c.sessions, "")
	}
	c.persistLocked()
	c.mu.Unlock()

	if backend {
		deleteCtx := context.WithoutCancel(ctx)
		c.spawn(func() {
			if err := c.remote.DeleteSession(deleteCtx, sessionID); err != nil {
				c.log.Warn("remote session delete failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		})
	}
}

// RenameSession updates the title optimistically and pushes it to the
// backend for backend sessions.
func (c *Controller) RenameSession(ctx context.Context, sessionID, title string) {
	c.mu.Lock()
	session, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return
	}
	session.Title = title
	session.Touch(c.now())
	c.persistLocked()
	backend := session.Backend()
	c.mu.Unlock()

	if backend {
		renameCtx := context.WithoutCancel(ctx)
		c.spawn(func() {
			if err := c.remote.UpdateTitle(renameCtx, sessionID, title); err != nil {
				c.log.Warn("remote rename failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		})
	}
}

// Sessions returns a snapshot of all sessions, most recently updated first.
func (c *Controller) Sessions() []*types.Session {
	c.mu.Lock()
	out := make([]*types.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s.Clone())
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Session returns a snapshot of one session.
func (c *Controller) Session(sessionID string) (*types.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// ActiveID returns the current active session pointer.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Wait blocks until all spawned background syncs have finished. Intended
// for shutdown and tests.
func (c *Controller) Wait() {
	c.bg.Wait()
}

// persistLocked writes the session map and active pointer through the
// persistence adapter. Callers hold c.mu.
func (c *Controller) persistLocked() {
	err := c.store.SetMany(map[string]any{
		store.KeyChats:       types.CloneSessions(c.sessions),
		store.KeyLastSession: c.activeID,
	})
	if err != nil {
		c.log.Error("failed to persist sessions", zap.Error(err))
	}
	c.metrics.SetSessionCount(len(c.sessions))
}

func (c *Controller) spawn(fn func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn()
	}()
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
