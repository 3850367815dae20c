package contact

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// SubmitMessageRequest is a contact form submission
type SubmitMessageRequest struct {
	Name    string `json:"name" binding:"required,max=150"`
	Email   string `json:"email" binding:"required,email,max=254"`
	Phone   string `json:"phone" binding:"max=30"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// ListMessagesRequest carries the admin message listing query
type ListMessagesRequest struct {
	Page       int  `form:"page" binding:"omitempty,gte=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	UnreadOnly bool `form:"unread_only"`
}

// MessageResponse represents a contact message in API responses
type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToMessageResponse converts a domain message
func ToMessageResponse(m *contact.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Body,
		Read:      m.Read,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

// SampleAddressInput is the delivery address of a sample request
type SampleAddressInput struct {
	FullName   string `json:"full_name" binding:"required,max=150"`
	Phone      string `json:"phone" binding:"required,max=30"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	Region     string `json:"region" binding:"max=100"`
	Country    string `json:"country" binding:"required,len=2"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// SubmitSampleRequest asks for samples of up to five products
type SubmitSampleRequest struct {
	Name       string             `json:"name" binding:"required,max=150"`
	Email      string             `json:"email" binding:"required,email,max=254"`
	Phone      string             `json:"phone" binding:"max=30"`
	Address    SampleAddressInput `json:"address" binding:"required"`
	ProductIDs []uuid.UUID        `json:"product_ids" binding:"required,min=1,max=5"`
	Notes      string             `json:"notes" binding:"max=1000"`
}

// ListSamplesRequest carries the admin sample request listing query
type ListSamplesRequest struct {
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending fulfilled cancelled"`
	Search   string `form:"search" binding:"max=100"`
}

// SampleStatusRequest carries the note of a fulfil or cancel
type SampleStatusRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// SampleResponse represents a sample request in API responses
type SampleResponse struct {
	ID          uuid.UUID           `json:"id"`
	Reference   string              `json:"reference"`
	UserID      *uuid.UUID          `json:"user_id,omitempty"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone,omitempty"`
	Address     valueobject.Address `json:"address"`
	ProductIDs  []uuid.UUID         `json:"product_ids"`
	Notes       string              `json:"notes,omitempty"`
	Status      string              `json:"status"`
	StatusNote  string              `json:"status_note,omitempty"`
	FulfilledAt *time.Time          `json:"fulfilled_at,omitempty"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ToSampleResponse converts a domain sample request
func ToSampleResponse(r *contact.SampleRequest) SampleResponse {
	return SampleResponse{
		ID:          r.ID,
		Reference:   r.Reference,
		UserID:      r.UserID,
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		ProductIDs:  r.ProductIDs,
		Notes:       r.Notes,
		Status:      string(r.Status),
		StatusNote:  r.StatusNote,
		FulfilledAt: r.FulfilledAt,
		CancelledAt: r.CancelledAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
