// Package types defines the shared data model for the CanvAI sync layer.
//
// Core Types:
//   - Session: one conversation thread with its ordered message history
//   - Message: a single chat message with role and timestamp
//   - WindowState: floating chat window geometry, clamped to the viewport
//   - APIKeys: stored credential fields for the Canvas/LLM integrations
//
// Sessions carry an explicit Origin tag distinguishing locally created
// sessions from backend-confirmed ones, instead of inferring the scheme
// from the shape of the identifier string.
//
// Example Usage:
//
//	s := types.NewLocalSession(id.NewLocalSessionID(), "New Conversation", time.Now())
//	s.Messages = append(s.Messages, types.Message{Role: types.RoleUser, Content: "hi"})
package types
