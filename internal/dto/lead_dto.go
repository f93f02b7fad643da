package dto

import (
	"strings"
	"time"

	"crm-api/internal/response"

	"github.com/google/uuid"
)

// CreateLeadRequest represents the request to create a lead.
// @Description firstName or company is required. source defaults to other, status to new.
type CreateLeadRequest struct {
	FirstName string     `json:"firstName" binding:"max=255" example:"منى"`
	LastName  string     `json:"lastName" binding:"max=255"`
	Company   string     `json:"company" binding:"max=255"`
	Email     string     `json:"email" binding:"omitempty,email,max=255"`
	Phone     string     `json:"phone" binding:"max=50"`
	Source    string     `json:"source" binding:"omitempty,oneof=website referral ads social cold_call other" example:"website"`
	Status    string     `json:"status" binding:"omitempty,oneof=new contacted qualified unqualified" example:"new"`
	Score     int        `json:"score" binding:"min=0,max=100"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	Notes     string     `json:"notes" binding:"max=5000"`
}

// CheckFields requires a person or company name
func (r *CreateLeadRequest) CheckFields() []response.FieldError {
	if strings.TrimSpace(r.FirstName) == "" && strings.TrimSpace(r.Company) == "" {
		return []response.FieldError{
			{Field: "firstName", Message: "الاسم الأول أو اسم الشركة مطلوب"},
			{Field: "company", Message: "الاسم الأول أو اسم الشركة مطلوب"},
		}
	}
	return nil
}

// UpdateLeadRequest represents a partial lead update
type UpdateLeadRequest struct {
	FirstName *string    `json:"firstName" binding:"omitempty,max=255"`
	LastName  *string    `json:"lastName" binding:"omitempty,max=255"`
	Company   *string    `json:"company" binding:"omitempty,max=255"`
	Email     *string    `json:"email" binding:"omitempty,email,max=255"`
	Phone     *string    `json:"phone" binding:"omitempty,max=50"`
	Source    *string    `json:"source" binding:"omitempty,oneof=website referral ads social cold_call other"`
	Status    *string    `json:"status" binding:"omitempty,oneof=new contacted qualified unqualified"`
	Score     *int       `json:"score" binding:"omitempty,min=0,max=100"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	Notes     *string    `json:"notes" binding:"omitempty,max=5000"`
}

// LeadFilter narrows the lead list
type LeadFilter struct {
	ListParams
	Status  string `form:"status" binding:"omitempty,oneof=new contacted qualified unqualified"`
	Source  string `form:"source" binding:"omitempty,oneof=website referral ads social cold_call other"`
	OwnerID string `form:"ownerId" binding:"omitempty,uuid"`
}

// LeadResponse represents a lead
type LeadResponse struct {
	ID                 uuid.UUID  `json:"id"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Company            string     `json:"company"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Source             string     `json:"source"`
	Status             string     `json:"status"`
	Score              int        `json:"score"`
	OwnerID            *uuid.UUID `json:"ownerId"`
	Notes              string     `json:"notes"`
	ConvertedClientID  *uuid.UUID `json:"convertedClientId"`
	ConvertedContactID *uuid.UUID `json:"convertedContactId"`
	ConvertedAt        *time.Time `json:"convertedAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ConvertLeadRequest turns a lead into a client and contact.
// @Description createClient and createContact default to true. Pass clientId to attach to an existing client instead.
type ConvertLeadRequest struct {
	ClientID      *uuid.UUID `json:"clientId"`
	CreateClient  *bool      `json:"createClient"`
	CreateContact *bool      `json:"createContact"`
}

// WantsClient reports whether a new client should be created
func (r *ConvertLeadRequest) WantsClient() bool {
	if r.ClientID != nil {
		return false
	}
	return r.CreateClient == nil || *r.CreateClient
}

// WantsContact reports whether a contact should be created
func (r *ConvertLeadRequest) WantsContact() bool {
	return r.CreateContact == nil || *r.CreateContact
}

// CheckFields requires either an existing client or createClient
func (r *ConvertLeadRequest) CheckFields() []response.FieldError {
	if r.ClientID == nil && r.CreateClient != nil && !*r.CreateClient {
		return []response.FieldError{{Field: "clientId", Message: "اختر عميلًا أو فعّل إنشاء عميل جديد"}}
	}
	return nil
}

// ConvertLeadResponse reports the records produced by a conversion
type ConvertLeadResponse struct {
	LeadID    uuid.UUID  `json:"leadId"`
	ClientID  uuid.UUID  `json:"clientId"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
}

// LeadStatsResponse summarises leads
type LeadStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
	BySource map[string]int64 `json:"bySource"`
}
