// Package remote is the HTTP client for the CanvAI backend.
//
// It wraps resty over a retryablehttp-built transport, with a rate limiter
// and a circuit breaker in front of every call. The reconciliation
// controller is the error boundary: every operation here returns a plain
// error on transport or decode failure and the controller downgrades it to
// a log line, so remote failures never block the UI.
//
// Endpoints (JSON envelopes, integer ids on the wire):
//
//	GET    /sessions                    list sessions
//	POST   /sessions                    create session
//	PATCH  /sessions/{id}               rename session
//	DELETE /sessions/{id}               delete session
//	GET    /sessions/{id}/messages      list messages
//	POST   /sessions/{id}/messages      append message
//	POST   /sessions/{id}/assistant     request assistant reply (404 = no reply)
//	GET    /user/keys                   fetch credential fields
//	POST   /user/{field}                store one credential field
package remote
