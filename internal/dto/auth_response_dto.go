package dto

// LoginResponse carries the issued token plus the authenticated user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // Seconds until expiry
	User      UserResponse `json:"user"`
}
