package models

// LoginRequest is the credential pair posted to /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the payload inside a successful /login envelope.
type LoginResult struct {
	Token string `json:"token"`
}

// RegisterRequest is the registration form posted to /register, or to
// /admin/register when SecretKey is set.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SecretKey       string `json:"secret_key,omitempty"`
}
