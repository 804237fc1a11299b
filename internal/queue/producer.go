package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, job TitleJob) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, job TitleJob) error {
	attempt := job.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"conversation_id": job.ConversationID,
		"owner_id":        job.OwnerID,
		"first_message":   job.FirstMessage,
		"model":           job.Model,
		"attempt":         attempt,
	}

	if job.TraceID != nil && *job.TraceID != "" {
		fields["trace_id"] = *job.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue title job: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued title job", "conversation_id", job.ConversationID, "model", job.Model, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
