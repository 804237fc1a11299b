package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/http/handler"
	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/store"
)

var _ = Describe("ChatHandler", func() {
	var (
		router *gin.Engine
		svc    *mockChatService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockChatService{}
		h := handler.NewChatHandler(svc)
		router.Use(middleware.RequireAuth(&mockAuthService{enabled: false}))
		router.POST("/chat", h.Send)
	})

	send := func(body map[string]any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Owner-Id", "user_1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("streams split updates followed by the terminal frame", func() {
		thinking := "hmm"
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			observer(model.Turn{Role: model.RoleAssistant, Status: model.TurnInProgress, Content: "Hel"}, "Hel")
			observer(model.Turn{Role: model.RoleAssistant, Status: model.TurnInProgress, Content: "Hello", Thinking: &thinking}, "lo")
			turn := model.Turn{Role: model.RoleAssistant, Status: model.TurnFinal, Content: "Hello", Thinking: &thinking}
			observer(turn, "")
			return chat.SendResult{
				Conversation: model.Conversation{URL: "abc-123"},
				Result:       chat.Result{Outcome: chat.OutcomeFinalized, Turn: turn, HasTurn: true},
			}, nil
		}

		w := send(map[string]any{"model": "qwen3", "message": "hi"})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("text/event-stream"))

		frames := parseSSE(w.Body.String())
		Expect(frames).To(HaveLen(3))
		Expect(frames[0]["content"]).To(Equal("Hel"))
		Expect(frames[1]["content"]).To(Equal("Hello"))
		Expect(frames[1]["thinking"]).To(Equal("hmm"))
		Expect(frames[2]["done"]).To(BeTrue())
		Expect(frames[2]["status"]).To(Equal("finalized"))
		Expect(frames[2]["conversation_url"]).To(Equal("abc-123"))
	})

	It("returns a plain JSON response for a zero-delta stream", func() {
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			return chat.SendResult{
				Conversation: model.Conversation{URL: "abc-123"},
				Result:       chat.Result{Outcome: chat.OutcomeFinalized},
			}, nil
		}

		w := send(map[string]any{"model": "qwen3", "message": "hi"})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	})

	It("rejects a request without a message", func() {
		w := send(map[string]any{"model": "qwen3"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 409 when the conversation is already streaming", func() {
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			return chat.SendResult{}, chat.ErrSendInFlight
		}
		w := send(map[string]any{"model": "qwen3", "message": "hi"})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 404 for an unknown conversation", func() {
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			return chat.SendResult{}, store.ErrNotFound
		}
		w := send(map[string]any{"model": "qwen3", "message": "hi", "conversation_url": "nope"})
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 502 when the upstream rejects the stream", func() {
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			return chat.SendResult{}, &chat.TransportError{Status: 500, Err: errors.New("boom")}
		}
		w := send(map[string]any{"model": "qwen3", "message": "hi"})
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})

	It("reports mid-stream failures in-band", func() {
		svc.sendFn = func(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
			observer(model.Turn{Role: model.RoleAssistant, Status: model.TurnInProgress, Content: "part"}, "part")
			return chat.SendResult{}, errors.New("stream failed: connection reset")
		}

		w := send(map[string]any{"model": "qwen3", "message": "hi"})

		Expect(w.Code).To(Equal(http.StatusOK))
		frames := parseSSE(w.Body.String())
		Expect(frames[len(frames)-1]).To(HaveKey("error"))
	})

	It("requires authentication", func() {
		raw, _ := json.Marshal(map[string]any{"model": "qwen3", "message": "hi"})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

func parseSSE(body string) []map[string]any {
	var frames []map[string]any
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err == nil {
			frames = append(frames, frame)
		}
	}
	return frames
}
