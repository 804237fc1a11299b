package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so a handler or service tags the context once
// and every log statement below it carries the conversation/turn identifiers.
type LogFields struct {
	ConversationID  *int64  // Conversation (chat) ID
	ConversationURL *string // Opaque conversation URL
	TurnID          *int64  // Turn (message) ID
	OwnerID         *string // Owning user ID
	Model           *string // Model identifier for the in-flight request
	Component       string  // Component name (e.g., "chat.reconciler")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.ConversationID != nil {
		result.ConversationID = new.ConversationID
	}
	if new.ConversationURL != nil {
		result.ConversationURL = new.ConversationURL
	}
	if new.TurnID != nil {
		result.TurnID = new.TurnID
	}
	if new.OwnerID != nil {
		result.OwnerID = new.OwnerID
	}
	if new.Model != nil {
		result.Model = new.Model
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{TurnID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like prompts or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
