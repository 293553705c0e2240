// Package controller implements session reconciliation: it owns the
// in-memory session store, keeps it consistent with the remote backend
// and the persistence adapter, and resolves which session is active.
//
// Every user-facing operation applies its local state change first
// (optimistic update) and treats remote failure as non-fatal: the failure
// is logged and the local state stands. A session that never reaches the
// backend stays local-only; there is no automatic retry.
//
// Session lifecycle: Local-Only -> Syncing -> Backend-Confirmed. The
// transition is one-directional; once a session carries a backend id it
// never reverts to a local one.
//
// Remote side effects that the user does not wait on (assistant replies,
// rename/delete propagation) run as background tasks with their own error
// boundary. Each task re-reads the latest session snapshot before applying
// its result, so interleaved operations converge instead of overwriting
// each other with stale copies.
package controller
