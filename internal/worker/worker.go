package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/internal/queue"
)

// Processor handles one title job. Returning an error requeues the job until
// the attempt budget runs out, then it goes to the DLQ.
type Processor interface {
	Process(ctx context.Context, msg queue.Message) error
}

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  *queue.RedisConsumer
	processor Processor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, processor Processor, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"conversation_id", msg.ConversationID)
			w.handleFailedMessage(ctx, msg, err)
			continue
		}
		if err := w.consumer.Ack(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to ack message", "error", err, "message_id", msg.ID)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"conversation_id", msg.ConversationID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	// A title job carries the trace of the HTTP request that enqueued it.
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.title_job")
	defer span.End()
	ctx = span.Context()

	slog.InfoContext(ctx, "processing title job",
		"message_id", msg.ID,
		"conversation_id", msg.ConversationID,
		"attempt", msg.Attempt)

	if err := w.processor.Process(ctx, msg); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"conversation_id", msg.ConversationID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"conversation_id", msg.ConversationID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
