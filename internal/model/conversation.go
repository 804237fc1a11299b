package model

import "time"

// Conversation is the persisted identity of a chat. URL is the opaque stable
// identifier clients navigate by; Name starts as a placeholder and is replaced
// once the title worker has generated one.
type Conversation struct {
	ID        int64
	Name      string
	OwnerID   string
	URL       string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// TurnRecord is a persisted turn as stored in the messages table. Content is
// raw model output, thinking markup included; hydration re-runs the splitter
// over it because the split is not persisted separately.
type TurnRecord struct {
	ID              int64
	ConversationID  int64
	OwnerID         string
	Content         string
	Model           string
	Sender          Role
	TokensPerSecond *float64
	CreatedAt       time.Time
}
