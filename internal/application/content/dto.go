package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/content"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// UpsertBlockRequest creates or replaces the block stored under a key
type UpsertBlockRequest struct {
	Page      string            `json:"page" binding:"max=50"`
	Title     map[string]string `json:"title" binding:"omitempty,dive,keys,lang,endkeys,max=300"`
	Body      map[string]string `json:"body" binding:"omitempty,dive,keys,lang,endkeys,max=20000"`
	ImageURL  string            `json:"image_url" binding:"omitempty,url,max=700"`
	Data      map[string]any    `json:"data"`
	SortOrder int               `json:"sort_order"`
	Published *bool             `json:"published"`
}

// BlockTranslations holds every translation of a block
type BlockTranslations struct {
	Title valueobject.LocalizedText `json:"title"`
	Body  valueobject.LocalizedText `json:"body"`
}

// BlockResponse represents a content block resolved for one language
type BlockResponse struct {
	ID           uuid.UUID         `json:"id"`
	Key          string            `json:"key"`
	Page         string            `json:"page"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	ImageURL     string            `json:"image_url,omitempty"`
	Data         map[string]any    `json:"data"`
	Published    bool              `json:"published"`
	SortOrder    int               `json:"sort_order"`
	Translations BlockTranslations `json:"translations"`
	Version      int               `json:"version"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ToBlockResponse converts a domain block for lang
func ToBlockResponse(b *content.Block, lang string) BlockResponse {
	return BlockResponse{
		ID:           b.ID,
		Key:          b.Key,
		Page:         b.Page,
		Title:        b.Title.Get(lang),
		Body:         b.Body.Get(lang),
		ImageURL:     b.ImageURL,
		Data:         b.Data,
		Published:    b.Published,
		SortOrder:    b.SortOrder,
		Translations: BlockTranslations{Title: b.Title, Body: b.Body},
		Version:      b.GetVersion(),
		UpdatedAt:    b.UpdatedAt,
	}
}

// UpsertResult reports whether the block was created
type UpsertResult struct {
	Block   BlockResponse `json:"block"`
	Created bool          `json:"created"`
}

// Language describes a supported content language
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Default   bool   `json:"default"`
}
