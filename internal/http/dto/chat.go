package dto

// SendMessageRequest starts or continues a conversation. An empty
// conversation_url creates a new conversation.
type SendMessageRequest struct {
	ConversationURL string  `json:"conversation_url,omitempty" binding:"omitempty,max=1024"`
	Model           string  `json:"model" binding:"required,min=1,max=255"`
	Message         string  `json:"message" binding:"required,min=1"`
	AttachmentIDs   []int64 `json:"attachment_ids,omitempty"`
}

// StreamUpdate is one SSE frame of assistant output: the current split state
// of the in-progress turn. Thinking and answer are kept apart so the client
// never has to parse markup.
type StreamUpdate struct {
	Content  string  `json:"content"`
	Thinking *string `json:"thinking,omitempty"`
}

// StreamDone is the terminal SSE frame.
type StreamDone struct {
	Done            bool     `json:"done"`
	Status          string   `json:"status"`
	ConversationURL string   `json:"conversation_url"`
	Content         string   `json:"content"`
	Thinking        *string  `json:"thinking,omitempty"`
	TokensPerSecond *float64 `json:"tokens_per_second,omitempty"`
}

// StreamError is sent when the upstream fails before or during streaming.
type StreamError struct {
	Error string `json:"error"`
}
