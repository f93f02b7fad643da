package dto

import "github.com/google/uuid"

// MeResponse describes the caller
type MeResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Role        *string   `json:"role"`
	Permissions []string  `json:"permissions"`
}

// UpdateRoleRequest sets or clears (empty role) a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"omitempty,oneof=admin sales_manager sales_rep viewer" example:"sales_rep"`
}

// ProfileResponse represents a user profile
type ProfileResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Role     *string   `json:"role"`
}
