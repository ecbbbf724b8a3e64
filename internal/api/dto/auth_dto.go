package dto

import "time"

// LoginRequest payload for both customer and staff logins.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Subject   SubjectProfile `json:"subject"`
}

// SubjectProfile is the public view of the authenticated account.
type SubjectProfile struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Type     string  `json:"type"`
	Role     *string `json:"role,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// SignupRequest payload for customer self-registration.
type SignupRequest struct {
	CompanyID   string  `json:"company_id"`
	ZoneID      *string `json:"zone_id,omitempty"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Address     string  `json:"address"`
	Password    string  `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
