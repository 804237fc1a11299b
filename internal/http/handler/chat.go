package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/http/dto"
	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/service"
	"bartuchat.app/server/internal/store"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send streams one exchange as server-sent events. Headers are not committed
// until the first upstream delta arrives, so early failures still get a
// proper JSON status.
func (h *ChatHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := middleware.GetOwner(ctx)
	streaming := false

	observer := func(turn model.Turn, delta string) {
		if !streaming {
			streaming = true
			header := c.Writer.Header()
			header.Set("Content-Type", "text/event-stream")
			header.Set("Cache-Control", "no-cache")
			header.Set("Connection", "keep-alive")
			header.Set("X-Accel-Buffering", "no")
			c.Writer.WriteHeader(http.StatusOK)
		}
		if turn.Status == model.TurnFinal {
			// the terminal frame is written after Send returns
			return
		}
		writeEvent(c, dto.StreamUpdate{Content: turn.Content, Thinking: turn.Thinking})
	}

	result, err := h.chatService.Send(ctx, chat.SendRequest{
		ConversationURL: req.ConversationURL,
		OwnerID:         owner.OwnerID,
		ModelID:         req.Model,
		Message:         req.Message,
		AttachmentIDs:   req.AttachmentIDs,
	}, observer)

	if err != nil {
		h.writeSendError(c, streaming, err)
		return
	}

	if !streaming {
		// zero-delta stream: nothing was ever written
		c.JSON(http.StatusOK, dto.StreamDone{
			Done:            true,
			Status:          string(result.Result.Outcome),
			ConversationURL: result.Conversation.URL,
		})
		return
	}

	done := dto.StreamDone{
		Done:            true,
		Status:          string(result.Result.Outcome),
		ConversationURL: result.Conversation.URL,
		TokensPerSecond: result.Result.TokensPerSecond,
	}
	if result.Result.HasTurn {
		done.Content = result.Result.Turn.Content
		done.Thinking = result.Result.Turn.Thinking
	}
	writeEvent(c, done)
}

func (h *ChatHandler) writeSendError(c *gin.Context, streaming bool, err error) {
	ctx := c.Request.Context()

	if streaming {
		// headers are committed, the error has to travel in-band
		slog.ErrorContext(ctx, "stream aborted", "error", err)
		writeEvent(c, dto.StreamError{Error: "stream failed"})
		return
	}

	var transportErr *chat.TransportError
	switch {
	case errors.Is(err, chat.ErrSendInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a message is already streaming in this conversation"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.As(err, &transportErr):
		slog.ErrorContext(ctx, "upstream unreachable", "error", err, "status", transportErr.Status)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream model unavailable"})
	default:
		slog.ErrorContext(ctx, "send failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
	}
}

func writeEvent(c *gin.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to marshal stream event", "error", err)
		return
	}
	if _, err := c.Writer.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
		return
	}
	c.Writer.Flush()
}
