package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadSource is where a lead came from
type LeadSource string

const (
	LeadSourceWebsite  LeadSource = "website"
	LeadSourceReferral LeadSource = "referral"
	LeadSourceAds      LeadSource = "ads"
	LeadSourceSocial   LeadSource = "social"
	LeadSourceColdCall LeadSource = "cold_call"
	LeadSourceOther    LeadSource = "other"
)

// LeadStatus is the qualification state of a lead
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusUnqualified LeadStatus = "unqualified"
)

// Lead is a prospect that may later be converted into a client and contact
type Lead struct {
	BaseModel
	FirstName          string     `gorm:"type:varchar(255)" json:"first_name"`
	LastName           string     `gorm:"type:varchar(255)" json:"last_name"`
	Company            string     `gorm:"type:varchar(255)" json:"company"`
	Email              string     `gorm:"type:varchar(255)" json:"email"`
	Phone              string     `gorm:"type:varchar(50)" json:"phone"`
	Source             LeadSource `gorm:"type:varchar(20);not null;default:'other';index:idx_leads_source" json:"source"`
	Status             LeadStatus `gorm:"type:varchar(20);not null;default:'new';index:idx_leads_status" json:"status"`
	Score              int        `gorm:"not null;default:0" json:"score"`
	OwnerID            *uuid.UUID `gorm:"type:uuid;index:idx_leads_owner_id" json:"owner_id"`
	Notes              string     `gorm:"type:text" json:"notes"`
	ConvertedClientID  *uuid.UUID `gorm:"type:uuid" json:"converted_client_id"`
	ConvertedContactID *uuid.UUID `gorm:"type:uuid" json:"converted_contact_id"`
	ConvertedAt        *time.Time `gorm:"type:timestamp" json:"converted_at"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) Owner() *uuid.UUID {
	return l.OwnerID
}

// IsConverted reports whether the lead was already turned into a client
func (l *Lead) IsConverted() bool {
	return l.ConvertedAt != nil
}
