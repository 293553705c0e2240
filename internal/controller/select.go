package controller

import (
	"github.com/samber/lo"

	"github.com/OBress/CanvAI/internal/shared/types"
)

// DefaultSessionID is the well-known fallback when no session exists yet.
// The local prefix keeps it from ever colliding with a backend id.
const DefaultSessionID = "local_default"

// SelectActive resolves the active session pointer against a session set.
// The preferred id wins when it names an existing session; otherwise the
// most recently updated session is chosen, with the id as a deterministic
// tie-break. An empty set yields DefaultSessionID.
func SelectActive(sessions map[string]*types.Session, preferred string) string {
	if preferred != "" {
		if _, ok := sessions[preferred]; ok {
			return preferred
		}
	}
	if len(sessions) == 0 {
		return DefaultSessionID
	}

	best := lo.MaxBy(lo.Values(sessions), func(a, b *types.Session) bool {
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
	return best.ID
}
