package queue

// TitleJob asks the worker to name one conversation from its opening message.
type TitleJob struct {
	ConversationID int64
	OwnerID        string
	FirstMessage   string
	Model          string
	TraceID        *string
	Attempt        int
}
