package dto

import (
	"time"

	"bartuchat.app/server/internal/model"
)

type RegisterModelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	DisplayName string `json:"display_name,omitempty" binding:"omitempty,max=255"`
	APIURL      string `json:"api_url" binding:"required,url,max=1024"`
	APIKey      string `json:"api_key,omitempty" binding:"omitempty,max=255"`
}

type UpdateModelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	DisplayName string `json:"display_name,omitempty" binding:"omitempty,max=255"`
	APIURL      string `json:"api_url" binding:"required,url,max=1024"`
	APIKey      string `json:"api_key,omitempty" binding:"omitempty,max=255"`
}

// ModelResponse never echoes the credential back.
type ModelResponse struct {
	ID          int64     `json:"id,string"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	APIURL      string    `json:"api_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToModelResponse(m model.CatalogModel) ModelResponse {
	return ModelResponse{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		APIURL:      m.APIURL,
		CreatedAt:   m.CreatedAt,
	}
}
