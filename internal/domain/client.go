package domain

import "github.com/google/uuid"

// Client is a customer organisation or person
type Client struct {
	BaseModel
	Name    string     `gorm:"type:varchar(255);not null;index:idx_clients_name" json:"name"`
	Email   string     `gorm:"type:varchar(255)" json:"email"`
	Phone   string     `gorm:"type:varchar(50)" json:"phone"`
	Company string     `gorm:"type:varchar(255)" json:"company"`
	OwnerID *uuid.UUID `gorm:"type:uuid;index:idx_clients_owner_id" json:"owner_id"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}

func (c *Client) Owner() *uuid.UUID {
	return c.OwnerID
}
