package identity

import "time"

// User represents a registered wallet owner. The display name is what the
// transfer engine checks recipient-name claims against.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials carries a registration or login request.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
