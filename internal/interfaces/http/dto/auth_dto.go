package dto

// LoginRequest represents the credentials posted by the login form
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a new account registration. Field names follow
// the property API contract, including the camelCase confirmation field.
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// UserResponse represents the authenticated user in responses
type UserResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

// SessionResponse represents the session state handed to the console shell
type SessionResponse struct {
	State         string        `json:"state"`
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}
