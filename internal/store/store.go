package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/OBress/CanvAI/internal/infrastructure/logging"
	"github.com/OBress/CanvAI/internal/shared/id"
	"github.com/OBress/CanvAI/internal/shared/types"
)

// Storage keys. One JSON file per key under the storage directory.
const (
	KeyChats       = "chats"
	KeyLastSession = "lastSessionId"
	KeyAPIKeys     = "apiKeys"
	KeyWindow      = "windowState"
)

// KnownKeys lists every key the store manages.
func KnownKeys() []string {
	return []string{KeyChats, KeyLastSession, KeyAPIKeys, KeyWindow}
}

// Subscriber receives the subset of keys that changed and their new values.
type Subscriber func(changed map[string]any)

// Store is a durable key-value store with change notification.
//
// Values are written atomically (temp file + rename) and watched with
// fsnotify, so a write from another context (another tab or process of the
// extension) reaches subscribers here as well. Corrupted or missing files
// degrade to built-in defaults.
type Store struct {
	dir string
	log *logging.Logger

	mu      sync.RWMutex
	values  map[string]any
	written map[string][]byte // last bytes this process wrote, to skip self-events

	subsMu  sync.Mutex
	subs    map[int]Subscriber
	nextSub int

	pendingMu sync.Mutex
	pending   []map[string]any
	wake      chan struct{}

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New opens the store rooted at dir, loading any existing values and
// starting the external-change watcher.
func New(dir string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	s := &Store{
		dir:     dir,
		log:     log,
		values:  make(map[string]any),
		written: make(map[string][]byte),
		subs:    make(map[int]Subscriber),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	for _, key := range KnownKeys() {
		data, err := os.ReadFile(s.path(key))
		if err != nil {
			continue
		}
		value, err := decodeValue(key, data)
		if err != nil {
			log.Warn("ignoring corrupted storage file",
				zap.String("key", key), zap.Error(err))
			continue
		}
		s.values[key] = value
		s.written[key] = data
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch storage dir: %w", err)
	}
	s.watcher = watcher
	go s.watch()
	go s.dispatch()

	return s, nil
}

// Close stops the external-change watcher and the notification
// dispatcher. Notifications still queued at this point are dropped.
func (s *Store) Close() error {
	close(s.done)
	return s.watcher.Close()
}

// Get returns the stored value for key, or its built-in default when absent.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return defaultValue(key)
	}
	return cloneValue(key, value)
}

// GetMany returns the stored values for keys, with defaults for absent ones.
func (s *Store) GetMany(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		out[key] = s.Get(key)
	}
	return out
}

// Set stores value under key, makes it durable, and notifies subscribers.
func (s *Store) Set(key string, value any) error {
	return s.SetMany(map[string]any{key: value})
}

// SetMany stores several values and notifies subscribers once with the
// full changed subset. All values are encoded before the first write, so
// an encode failure applies nothing. On a write failure the keys already
// written are applied and announced anyway; subscribers always see exactly
// what reached disk.
func (s *Store) SetMany(values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := encodeValue(key, value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = data
	}

	changed := make(map[string]any, len(values))
	var writeErr error
	s.mu.Lock()
	for key, value := range values {
		if err := s.writeFile(key, encoded[key]); err != nil {
			writeErr = err
			break
		}
		s.values[key] = cloneValue(key, value)
		s.written[key] = encoded[key]
		changed[key] = cloneValue(key, value)
	}
	// Enqueued before the lock drops so delivery order matches apply order.
	s.notify(changed)
	s.mu.Unlock()

	return writeErr
}

// Subscribe registers fn to be called with every changed key subset,
// whether the write came from this process or an external one. Delivery
// is asynchronous and in write order; fn may read back through the store.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subsMu.Lock()
	token := s.nextSub
	s.nextSub++
	s.subs[token] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, token)
		s.subsMu.Unlock()
	}
}

// EnsureInitialized seeds defaults for any missing key without touching
// existing values. Idempotent.
func (s *Store) EnsureInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range KnownKeys() {
		if _, ok := s.values[key]; ok {
			continue
		}
		if _, err := os.Stat(s.path(key)); err == nil {
			continue
		}
		value := defaultValue(key)
		data, err := encodeValue(key, value)
		if err != nil {
			return fmt.Errorf("failed to encode default %s: %w", key, err)
		}
		if err := s.writeFile(key, data); err != nil {
			return err
		}
		s.values[key] = value
		s.written[key] = data
	}
	return nil
}

// notify queues a changed subset for the dispatcher. Writers never run
// subscriber callbacks themselves: a subscriber typically re-reads
// higher-level state (the reconciliation controller persists while holding
// its own lock), and calling it on the writer's goroutine would deadlock.
func (s *Store) notify(changed map[string]any) {
	if len(changed) == 0 {
		return
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, changed)
	s.pendingMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// dispatch delivers queued notifications in order on its own goroutine.
func (s *Store) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			s.pendingMu.Lock()
			if len(s.pending) == 0 {
				s.pendingMu.Unlock()
				break
			}
			changed := s.pending[0]
			s.pending = s.pending[1:]
			s.pendingMu.Unlock()
			s.deliver(changed)
		}
	}
}

func (s *Store) deliver(changed map[string]any) {
	s.subsMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(changed)
	}
}

// watch dispatches external mutations of the storage directory.
func (s *Store) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			key, ok := keyForFile(filepath.Base(event.Name))
			if !ok {
				continue
			}
			s.handleExternal(key)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("storage watcher error", zap.Error(err))
		}
	}
}

func (s *Store) handleExternal(key string) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return
	}

	s.mu.Lock()
	if bytes.Equal(data, s.written[key]) {
		// Our own write echoed back by the watcher.
		s.mu.Unlock()
		return
	}
	value, err := decodeValue(key, data)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("ignoring corrupted external write",
			zap.String("key", key), zap.Error(err))
		return
	}
	s.values[key] = value
	s.written[key] = data
	s.notify(map[string]any{key: cloneValue(key, value)})
	s.mu.Unlock()
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func keyForFile(name string) (string, bool) {
	for _, key := range KnownKeys() {
		if name == key+".json" {
			return key, true
		}
	}
	return "", false
}

// writeFile persists data atomically: temp file in the same directory,
// then rename.
func (s *Store) writeFile(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// decodeValue maps raw bytes to the typed value for a key. Sessions cached
// by older versions carry no origin tag; it is inferred from the id shape.
func decodeValue(key string, data []byte) (any, error) {
	switch key {
	case KeyChats:
		var chats map[string]*types.Session
		if err := sonic.Unmarshal(data, &chats); err != nil {
			return nil, err
		}
		if chats == nil {
			chats = map[string]*types.Session{}
		}
		for sid, session := range chats {
			if session == nil {
				delete(chats, sid)
				continue
			}
			if session.ID == "" {
				session.ID = sid
			}
			if session.Origin == "" {
				if id.IsBackend(session.ID) {
					session.Origin = types.OriginBackend
				} else {
					session.Origin = types.OriginLocal
				}
			}
		}
		return chats, nil
	case KeyLastSession:
		var last *string
		if err := sonic.Unmarshal(data, &last); err != nil {
			return nil, err
		}
		if last == nil {
			return "", nil
		}
		return *last, nil
	case KeyAPIKeys:
		var keys types.APIKeys
		if err := sonic.Unmarshal(data, &keys); err != nil {
			return nil, err
		}
		if keys == nil {
			keys = types.APIKeys{}
		}
		return keys, nil
	case KeyWindow:
		var window types.WindowState
		if err := sonic.Unmarshal(data, &window); err != nil {
			return nil, err
		}
		return window, nil
	default:
		var value any
		if err := sonic.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

func encodeValue(key string, value any) ([]byte, error) {
	if key == KeyLastSession {
		// The active pointer is string|null on disk; empty means null.
		if s, ok := value.(string); ok && s == "" {
			return []byte("null"), nil
		}
	}
	return sonic.Marshal(value)
}

func defaultValue(key string) any {
	switch key {
	case KeyChats:
		return map[string]*types.Session{}
	case KeyLastSession:
		return ""
	case KeyAPIKeys:
		return types.APIKeys{}
	case KeyWindow:
		return types.DefaultWindow()
	default:
		return nil
	}
}

func cloneValue(key string, value any) any {
	switch v := value.(type) {
	case map[string]*types.Session:
		return types.CloneSessions(v)
	case types.APIKeys:
		return v.Clone()
	default:
		return value
	}
}
