package models

// Role tags a message in a conversation.
type Role string

const (
	// RoleSystem carries the agent's standing instructions.
	RoleSystem Role = "system"
	// RoleUser carries the task-scoped input.
	RoleUser Role = "user"
	// RoleAssistant carries generated output.
	RoleAssistant Role = "assistant"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single role-tagged entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message history sent to a model.
// Each agent call builds a fresh one; conversations are never reused.
type Conversation []Message

// NewConversation returns the two-message system+user conversation every agent uses.
func NewConversation(system, user string) Conversation {
	return Conversation{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
