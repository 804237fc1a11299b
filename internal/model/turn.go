package model

import "time"

// Role identifies the author of a turn. The set is closed: anything outside
// these three values is rejected at the transcript boundary.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// TurnStatus tracks whether a turn is still being streamed into.
type TurnStatus string

const (
	TurnInProgress TurnStatus = "in_progress"
	TurnFinal      TurnStatus = "final"
)

// Turn is one message in a conversation. Content and Thinking are mutable only
// while Status is TurnInProgress; finalization freezes them along with
// TokensPerSecond.
type Turn struct {
	ID              int64
	Role            Role
	Content         string
	Thinking        *string
	Status          TurnStatus
	TokensPerSecond *float64
	Attachments     []Attachment
	CreatedAt       time.Time
}

// TurnPatch carries the fields the reconciler rewrites on each delta.
// Content and Thinking always replace; TokensPerSecond replaces when non-nil.
type TurnPatch struct {
	Content         string
	Thinking        *string
	TokensPerSecond *float64
}

// PromptMessage is the role/content pair submitted back to the LLM provider.
// Thinking traces and attachments never appear here; attachment inlining is
// the orchestrator's job.
type PromptMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
