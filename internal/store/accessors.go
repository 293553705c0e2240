package store

import "github.com/OBress/CanvAI/internal/shared/types"

// Typed accessors over the raw key-value surface.

// Chats returns the cached session map keyed by session id.
func (s *Store) Chats() map[string]*types.Session {
	chats, ok := s.Get(KeyChats).(map[string]*types.Session)
	if !ok {
		return map[string]*types.Session{}
	}
	return chats
}

// SetChats persists the full session map.
func (s *Store) SetChats(chats map[string]*types.Session) error {
	return s.Set(KeyChats, chats)
}

// LastSessionID returns the persisted active-session pointer, empty when unset.
func (s *Store) LastSessionID() string {
	last, ok := s.Get(KeyLastSession).(string)
	if !ok {
		return ""
	}
	return last
}

// SetLastSessionID persists the active-session pointer.
func (s *Store) SetLastSessionID(sessionID string) error {
	return s.Set(KeyLastSession, sessionID)
}

// Keys returns the stored credential fields.
func (s *Store) Keys() types.APIKeys {
	keys, ok := s.Get(KeyAPIKeys).(types.APIKeys)
	if !ok {
		return types.APIKeys{}
	}
	return keys
}

// SetKeys persists the credential fields.
func (s *Store) SetKeys(keys types.APIKeys) error {
	return s.Set(KeyAPIKeys, keys)
}

// Window returns the persisted window geometry.
func (s *Store) Window() types.WindowState {
	window, ok := s.Get(KeyWindow).(types.WindowState)
	if !ok {
		return types.DefaultWindow()
	}
	return window
}

// SetWindow persists the window geometry.
func (s *Store) SetWindow(window types.WindowState) error {
	return s.Set(KeyWindow, window)
}
