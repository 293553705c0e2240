package types

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single chat message.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseRole maps a wire sender string to a Role, defaulting to assistant
// for anything unrecognized (the backend has used "bot" historically).
func ParseRole(sender string) Role {
	switch Role(sender) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(sender)
	default:
		return RoleAssistant
	}
}
