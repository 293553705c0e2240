// Package store implements the persistence adapter for the sync layer:
// a durable key-value store with change notification.
//
// Keys:
//   - chats: map of session id to cached Session
//   - lastSessionId: the active-session pointer (string or null)
//   - apiKeys: credential fields for the backend integrations
//   - windowState: floating window geometry
//
// Each key lives in its own JSON file under the storage directory, written
// atomically. A directory watcher turns writes from other contexts (other
// tabs or processes of the extension) into subscriber notifications, so
// every open instance converges on the same state. Notifications are
// delivered in order on a dedicated goroutine, never on the writer's, so
// a subscriber may read back through the store or the layers above it.
//
// Example Usage:
//
//	s, err := store.New(cfg.Storage.Dir, logger)
//	cancel := s.Subscribe(func(changed map[string]any) { ... })
//	defer cancel()
//	err = s.SetMany(map[string]any{store.KeyChats: chats, store.KeyLastSession: active})
package store
