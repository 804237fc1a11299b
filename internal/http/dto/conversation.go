package dto

import (
	"time"

	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/service"
)

type ConversationResponse struct {
	URL       string     `json:"url"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func ToConversationResponse(c model.Conversation) ConversationResponse {
	return ConversationResponse{
		URL:       c.URL,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type TurnResponse struct {
	ID              int64     `json:"id,string"`
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	Thinking        *string   `json:"thinking,omitempty"`
	TokensPerSecond *float64  `json:"tokens_per_second,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToTurnResponse(t model.Turn) TurnResponse {
	return TurnResponse{
		ID:              t.ID,
		Role:            string(t.Role),
		Content:         t.Content,
		Thinking:        t.Thinking,
		TokensPerSecond: t.TokensPerSecond,
		CreatedAt:       t.CreatedAt,
	}
}

type ConversationDetailResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Turns        []TurnResponse       `json:"turns"`
}

func ToConversationDetailResponse(view *service.ConversationView) ConversationDetailResponse {
	turns := make([]TurnResponse, 0, len(view.Turns))
	for _, t := range view.Turns {
		turns = append(turns, ToTurnResponse(t))
	}
	return ConversationDetailResponse{
		Conversation: ToConversationResponse(view.Conversation),
		Turns:        turns,
	}
}

type RenameConversationRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}
