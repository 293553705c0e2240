package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/OBress/CanvAI/internal/shared/types"
)

var errUnavailable = errors.New("backend unavailable")

// fakeRemote implements Remote with per-operation hooks. Unhooked
// operations fail, matching an unreachable backend.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	fetchSessionsFn  func(ctx context.Context) ([]types.Session, error)
	fetchMessagesFn  func(ctx context.Context, sessionID string) ([]types.Message, error)
	createSessionFn  func(ctx context.Context, userID, title string) (*types.Session, error)
	updateTitleFn    func(ctx context.Context, sessionID, title string) error
	deleteSessionFn  func(ctx context.Context, sessionID string) error
	appendMessageFn  func(ctx context.Context, sessionID string, msg types.Message) (*types.Message, error)
	assistantReplyFn func(ctx context.Context, sessionID string) (*types.Message, error)
	fetchKeysFn      func(ctx context.Context) (types.APIKeys, error)
	setKeyFn         func(ctx context.Context, field, value string) error
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) FetchSessions(ctx context.Context) ([]types.Session, error) {
	f.record("fetch_sessions")
	if f.fetchSessionsFn == nil {
		return nil, errUnavailable
	}
	return f.fetchSessionsFn(ctx)
}

func (f *fakeRemote) FetchMessages(ctx context.Context, sessionID string) ([]types.Message, error) {
	f.record("fetch_messages:" + sessionID)
	if f.fetchMessagesFn == nil {
		return nil, errUnavailable
	}
	return f.fetchMessagesFn(ctx, sessionID)
}

func (f *fakeRemote) CreateSession(ctx context.Context, userID, title string) (*types.Session, error) {
	f.record("create_session:" + title)
	if f.createSessionFn == nil {
		return nil, errUnavailable
	}
	return f.createSessionFn(ctx, userID, title)
}

func (f *fakeRemote) UpdateTitle(ctx context.Context, sessionID, title string) error {
	f.record("update_title:" + sessionID + ":" + title)
	if f.updateTitleFn == nil {
		return errUnavailable
	}
	return f.updateTitleFn(ctx, sessionID, title)
}

func (f *fakeRemote) DeleteSession(ctx context.Context, sessionID string) error {
	f.record("delete_session:" + sessionID)
	if f.deleteSessionFn == nil {
		return errUnavailable
	}
	return f.deleteSessionFn(ctx, sessionID)
}

func (f *fakeRemote) AppendMessage(ctx context.Context, sessionID string, msg types.Message) (*types.Message, error) {
	f.record("append_message:" + sessionID)
	if f.appendMessageFn == nil {
		return nil, errUnavailable
	}
	return f.appendMessageFn(ctx, sessionID, msg)
}

func (f *fakeRemote) RequestAssistantReply(ctx context.Context, sessionID string) (*types.Message, error) {
	f.record("assistant_reply:" + sessionID)
	if f.assistantReplyFn == nil {
		return nil, errUnavailable
	}
	return f.assistantReplyFn(ctx, sessionID)
}

func (f *fakeRemote) FetchKeys(ctx context.Context) (types.APIKeys, error) {
	f.record("fetch_keys")
	if f.fetchKeysFn == nil {
		return nil, errUnavailable
	}
	return f.fetchKeysFn(ctx)
}

func (f *fakeRemote) SetKey(ctx context.Context, field, value string) error {
	f.record("set_key:" + field)
	if f.setKeyFn == nil {
		return errUnavailable
	}
	return f.setKeyFn(ctx, field, value)
}
