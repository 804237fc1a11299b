package model

import "time"

// Attachment references externally stored file content. Created before any
// turn points at it; immutable afterwards. Content is fetched lazily when the
// attachment is inlined into an outgoing prompt.
type Attachment struct {
	ID        int64
	MessageID *int64
	OwnerID   string
	FileName  string
	FileType  string
	FileSize  int
	URL       string
	Content   *string
	CreatedAt time.Time
}
