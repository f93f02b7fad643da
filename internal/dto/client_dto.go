package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateClientRequest represents the request to create a client
type CreateClientRequest struct {
	Name    string     `json:"name" binding:"required,min=2,max=255" example:"شركة النيل للتجارة"`
	Email   string     `json:"email" binding:"omitempty,email,max=255" example:"info@nile.example"`
	Phone   string     `json:"phone" binding:"max=50" example:"+20 100 000 0000"`
	Company string     `json:"company" binding:"max=255"`
	OwnerID *uuid.UUID `json:"ownerId"`
}

// UpdateClientRequest represents a partial client update
type UpdateClientRequest struct {
	Name    *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Email   *string    `json:"email" binding:"omitempty,email,max=255"`
	Phone   *string    `json:"phone" binding:"omitempty,max=50"`
	Company *string    `json:"company" binding:"omitempty,max=255"`
	OwnerID *uuid.UUID `json:"ownerId"`
}

// ClientFilter narrows the client list
type ClientFilter struct {
	ListParams
	OwnerID string `form:"ownerId" binding:"omitempty,uuid"`
}

// ClientResponse represents a client
type ClientResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Company   string     `json:"company"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CountResponse carries a single count
type CountResponse struct {
	Count int64 `json:"count"`
}
