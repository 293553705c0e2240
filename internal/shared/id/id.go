// Package id provides identifier generation and classification for the
// sync layer.
//
// Two identifier schemes coexist:
//   - Backend ids: decimal numeric strings assigned by the remote service.
//   - Local ids: prefixed ULIDs generated here before any backend
//     round-trip completes. The prefix guarantees a local id can never be
//     mistaken for a backend id.
//
// IsBackend retains the all-digits test used on the wire and for cached
// data written by older versions; new code should rely on the explicit
// Origin tag carried on the session instead.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Prefixes for locally generated ids.
const (
	LocalSessionPrefix = "local"
	MessagePrefix      = "msg"
)

// Generator produces prefixed ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator backed by crypto/rand.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = &Generator{entropy: rand.Reader}
	})
	return defaultGenerator
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewLocalSessionID generates an id for a session that has not been
// confirmed by the backend. The prefix keeps it non-numeric by construction.
func NewLocalSessionID() string {
	return Default().GenerateWithPrefix(LocalSessionPrefix)
}

// NewMessageID generates a provisional id for an optimistic message.
func NewMessageID() string {
	return fmt.Sprintf("%s_%s", MessagePrefix, uuid.NewString())
}

// IsBackend reports whether s looks like a backend-assigned identifier:
// a non-empty decimal numeric string.
func IsBackend(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
