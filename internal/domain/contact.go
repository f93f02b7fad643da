package domain

import "github.com/google/uuid"

// Contact is a person, optionally attached to a client
type Contact struct {
	BaseModel
	FirstName string     `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName  string     `gorm:"type:varchar(255)" json:"last_name"`
	Email     string     `gorm:"type:varchar(255)" json:"email"`
	Phone     string     `gorm:"type:varchar(50)" json:"phone"`
	Company   string     `gorm:"type:varchar(255)" json:"company"`
	Position  string     `gorm:"type:varchar(255)" json:"position"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index:idx_contacts_client_id" json:"client_id"`
	OwnerID   *uuid.UUID `gorm:"type:uuid;index:idx_contacts_owner_id" json:"owner_id"`
	Notes     string     `gorm:"type:text" json:"notes"`
	Client    *Client    `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

func (c *Contact) Owner() *uuid.UUID {
	return c.OwnerID
}

// FullName joins first and last name
func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
