package handler

import "github.com/perfume/backend/internal/interfaces/http/dto"

// APIResponse documents the envelope of every JSON response
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// MessageData is a plain confirmation payload
type MessageData struct {
	Message string `json:"message"`
}
