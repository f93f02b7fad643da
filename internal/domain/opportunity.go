package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OpportunityStatus is the lifecycle status of a deal
type OpportunityStatus string

const (
	OpportunityStatusOpen OpportunityStatus = "open"
	OpportunityStatusWon  OpportunityStatus = "won"
	OpportunityStatusLost OpportunityStatus = "lost"
)

// DefaultCurrency is applied when an opportunity is created without a currency
const DefaultCurrency = "EGP"

// Opportunity is a sales deal positioned in exactly one stage
type Opportunity struct {
	BaseModel
	Name        string            `gorm:"type:varchar(255);not null" json:"name"`
	ClientID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_opportunities_client_id" json:"client_id"`
	StageID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_opportunities_stage_id" json:"stage_id"`
	Amount      float64           `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	Currency    string            `gorm:"type:varchar(3);not null;default:'EGP'" json:"currency"`
	Status      OpportunityStatus `gorm:"type:varchar(20);not null;default:'open';index:idx_opportunities_status" json:"status"`
	Probability int               `gorm:"not null;default:0" json:"probability"`
	CloseDate   *datatypes.Date   `gorm:"type:date" json:"close_date"`
	OwnerID     *uuid.UUID        `gorm:"type:uuid;index:idx_opportunities_owner_id" json:"owner_id"`
	ContactID   *uuid.UUID        `gorm:"type:uuid;index:idx_opportunities_contact_id" json:"contact_id"`
	Notes       string            `gorm:"type:text" json:"notes"`
	Client      *Client           `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	Stage       *Stage            `gorm:"foreignKey:StageID;constraint:OnDelete:RESTRICT" json:"stage,omitempty"`
	Contact     *Contact          `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL" json:"contact,omitempty"`
}

// TableName specifies the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}

// Owner returns the owning user, used by ownership-scoped permission checks
func (o *Opportunity) Owner() *uuid.UUID {
	return o.OwnerID
}
