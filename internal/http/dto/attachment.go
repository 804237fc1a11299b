package dto

import (
	"time"

	"bartuchat.app/server/internal/model"
)

type UploadAttachmentRequest struct {
	FileName string `json:"file_name" binding:"required,min=1,max=255"`
	FileType string `json:"file_type" binding:"required,max=255"`
	FileSize int    `json:"file_size" binding:"required,min=1"`
	URL      string `json:"url,omitempty" binding:"omitempty,max=1024"`
	Content  string `json:"content,omitempty"`
}

type AttachmentResponse struct {
	ID        int64     `json:"id,string"`
	MessageID *int64    `json:"message_id,string,omitempty"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int       `json:"file_size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func ToAttachmentResponse(a model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		MessageID: a.MessageID,
		FileName:  a.FileName,
		FileType:  a.FileType,
		FileSize:  a.FileSize,
		URL:       a.URL,
		CreatedAt: a.CreatedAt,
	}
}
