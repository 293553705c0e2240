package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OBress/CanvAI/internal/shared/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetReturnsDefaults(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.Chats())
	assert.Equal(t, "", s.LastSessionID())
	assert.Empty(t, s.Keys())
	assert.Equal(t, types.DefaultWindow(), s.Window())
}

func TestSetManyGetManyRoundTrip(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	chats := map[string]*types.Session{
		"12": {
			ID:        "12",
			Origin:    types.OriginBackend,
			Title:     "Homework help",
			CreatedAt: now,
			UpdatedAt: now,
			Messages: []types.Message{
				{ID: "1", Role: types.RoleUser, Content: "hello", CreatedAt: now},
			},
		},
	}

	err := s.SetMany(map[string]any{
		KeyChats:       chats,
		KeyLastSession: "12",
	})
	require.NoError(t, err)

	got := s.GetMany([]string{KeyChats, KeyLastSession})
	gotChats, ok := got[KeyChats].(map[string]*types.Session)
	require.True(t, ok)
	require.Contains(t, gotChats, "12")
	assert.Equal(t, "Homework help", gotChats["12"].Title)
	assert.Len(t, gotChats["12"].Messages, 1)
	assert.Equal(t, "12", got[KeyLastSession])
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetLastSessionID("42"))
	require.NoError(t, s.SetKeys(types.APIKeys{types.FieldCanvasKey: "tok"}))
	s.Close()

	reopened, err := New(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, "42", reopened.LastSessionID())
	assert.Equal(t, "tok", reopened.Keys()[types.FieldCanvasKey])
}

func TestEnsureInitializedSeedsWithoutOverwriting(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetLastSessionID("7"))
	require.NoError(t, s.EnsureInitialized())

	// Seeded keys exist on disk.
	for _, key := range KnownKeys() {
		_, err := os.Stat(filepath.Join(s.dir, key+".json"))
		assert.NoError(t, err, key)
	}

	// Existing value was not reset.
	assert.Equal(t, "7", s.LastSessionID())

	// Idempotent.
	require.NoError(t, s.EnsureInitialized())
	assert.Equal(t, "7", s.LastSessionID())
}

func TestSubscribeReceivesChangedSubset(t *testing.T) {
	s := newTestStore(t)

	notified := make(chan map[string]any, 1)
	cancel := s.Subscribe(func(changed map[string]any) {
		select {
		case notified <- changed:
		default:
		}
	})
	defer cancel()

	require.NoError(t, s.SetMany(map[string]any{
		KeyLastSession: "3",
		KeyWindow:      types.WindowState{X: 1, Y: 2, Width: 300, Height: 400},
	}))

	select {
	case got := <-notified:
		assert.Len(t, got, 2)
		assert.Equal(t, "3", got[KeyLastSession])
		assert.NotContains(t, got, KeyChats)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for SetMany")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := newTestStore(t)

	notified := make(chan string, 4)
	cancel := s.Subscribe(func(changed map[string]any) {
		if v, ok := changed[KeyLastSession].(string); ok {
			notified <- v
		}
	})

	require.NoError(t, s.SetLastSessionID("1"))
	select {
	case v := <-notified:
		assert.Equal(t, "1", v)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification before unsubscribe")
	}

	cancel()
	require.NoError(t, s.SetLastSessionID("2"))

	select {
	case v := <-notified:
		t.Fatalf("unexpected notification %q after unsubscribe", v)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscriberDoesNotBlockWriter(t *testing.T) {
	s := newTestStore(t)

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	cancel := s.Subscribe(func(changed map[string]any) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})
	defer cancel()
	defer close(release)

	done := make(chan struct{})
	go func() {
		s.SetLastSessionID("1")
		s.SetLastSessionID("2")
		close(done)
	}()

	// Both writes must return while the subscriber is still stuck.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writes blocked on a stalled subscriber")
	}
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never invoked")
	}
}

func TestSetManyEncodeFailureAppliesNothing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetLastSessionID("1"))

	err := s.SetMany(map[string]any{
		KeyLastSession: "2",
		KeyWindow:      make(chan int), // not encodable
	})
	require.Error(t, err)
	assert.Equal(t, "1", s.LastSessionID())
}

func TestSetManyWriteFailureSkipsNotification(t *testing.T) {
	s := newTestStore(t)

	notified := make(chan map[string]any, 4)
	cancel := s.Subscribe(func(changed map[string]any) {
		notified <- changed
	})
	defer cancel()

	require.NoError(t, s.SetLastSessionID("1"))
	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for the successful write")
	}

	// Point the store at a directory that no longer exists so every
	// temp-file create fails.
	s.dir = filepath.Join(s.dir, "gone")

	err := s.SetLastSessionID("2")
	require.Error(t, err)
	assert.Equal(t, "1", s.LastSessionID(), "failed write leaves the cached value alone")

	select {
	case changed := <-notified:
		t.Fatalf("unexpected notification %v for a failed write", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestExternalWriteNotifiesSubscribers(t *testing.T) {
	s := newTestStore(t)

	notified := make(chan map[string]any, 1)
	cancel := s.Subscribe(func(changed map[string]any) {
		select {
		case notified <- changed:
		default:
		}
	})
	defer cancel()

	// Simulate another context writing the file directly.
	err := os.WriteFile(filepath.Join(s.dir, KeyLastSession+".json"), []byte(`"99"`), 0o644)
	require.NoError(t, err)

	select {
	case changed := <-notified:
		assert.Equal(t, "99", changed[KeyLastSession])
		assert.Equal(t, "99", s.LastSessionID())
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for external write")
	}
}

func TestCorruptedFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, KeyChats+".json"), []byte("{not json"), 0o644)
	require.NoError(t, err)

	s, err := New(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Chats())
}

func TestChatsNormalizesLegacyOrigin(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"15":{"id":"15","title":"old","messages":[]},` +
		`"local_abc":{"id":"local_abc","title":"draft","messages":[]}}`
	err := os.WriteFile(filepath.Join(dir, KeyChats+".json"), []byte(legacy), 0o644)
	require.NoError(t, err)

	s, err := New(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	chats := s.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, types.OriginBackend, chats["15"].Origin)
	assert.Equal(t, types.OriginLocal, chats["local_abc"].Origin)
}

func TestChatsSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetChats(map[string]*types.Session{
		"1": {ID: "1", Origin: types.OriginBackend, Title: "original"},
	}))

	snapshot := s.Chats()
	snapshot["1"].Title = "mutated"

	assert.Equal(t, "original", s.Chats()["1"].Title)
}

func TestLastSessionNullOnDisk(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetLastSessionID(""))

	data, err := os.ReadFile(filepath.Join(s.dir, KeyLastSession+".json"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
	assert.Equal(t, "", s.LastSessionID())
}
