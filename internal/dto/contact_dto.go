package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateContactRequest represents the request to create a contact. ownerId defaults to the caller.
type CreateContactRequest struct {
	FirstName string     `json:"firstName" binding:"required,min=1,max=255" example:"أحمد"`
	LastName  string     `json:"lastName" binding:"max=255" example:"علي"`
	Email     string     `json:"email" binding:"omitempty,email,max=255"`
	Phone     string     `json:"phone" binding:"max=50"`
	Company   string     `json:"company" binding:"max=255"`
	Position  string     `json:"position" binding:"max=255"`
	ClientID  *uuid.UUID `json:"clientId"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	Notes     string     `json:"notes" binding:"max=5000"`
}

// UpdateContactRequest represents a partial contact update
type UpdateContactRequest struct {
	FirstName *string    `json:"firstName" binding:"omitempty,min=1,max=255"`
	LastName  *string    `json:"lastName" binding:"omitempty,max=255"`
	Email     *string    `json:"email" binding:"omitempty,email,max=255"`
	Phone     *string    `json:"phone" binding:"omitempty,max=50"`
	Company   *string    `json:"company" binding:"omitempty,max=255"`
	Position  *string    `json:"position" binding:"omitempty,max=255"`
	ClientID  *uuid.UUID `json:"clientId"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	Notes     *string    `json:"notes" binding:"omitempty,max=5000"`
}

// ContactFilter narrows the contact list
type ContactFilter struct {
	ListParams
	ClientID string `form:"clientId" binding:"omitempty,uuid"`
	OwnerID  string `form:"ownerId" binding:"omitempty,uuid"`
}

// ContactResponse represents a contact
type ContactResponse struct {
	ID        uuid.UUID      `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	FullName  string         `json:"fullName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	Position  string         `json:"position"`
	ClientID  *uuid.UUID     `json:"clientId"`
	Client    *ClientSummary `json:"client,omitempty"`
	OwnerID   *uuid.UUID     `json:"ownerId"`
	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
