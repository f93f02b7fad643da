package domain

// Profile holds the application role of an authenticated user. ID equals the auth subject.
type Profile struct {
	BaseModel
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	Email    string `gorm:"type:varchar(255)" json:"email"`
	Role     string `gorm:"type:varchar(32);index:idx_profiles_role" json:"role"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}
