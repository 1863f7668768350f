package user

import (
	"time"

	"gorm.io/gorm"
)

// Role represents the set of possible user roles.
type Role string

const (
	// Admin may manage catalog entities
	Admin Role = "admin"
	// Member may read the catalog and write reviews
	Member Role = "member"
)

// User is an authenticated principal. The password column holds a bcrypt
// hash, never the plaintext.
type User struct {
	gorm.Model
	// Email address (unique)
	Email string `json:"email" gorm:"uniqueIndex;not null"`
	// Password hash (hidden from JSON)
	Password string `json:"-"`
	// LastSeen indicates last successful authentication time
	LastSeen time.Time `json:"last_seen"`
	// Role of the user
	Role Role `json:"role" gorm:"type:text;default:'member'"`
}

// NewUser initializes a User with the default member role.
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:    email,
		Password: passwordHash,
		LastSeen: time.Now().UTC(),
		Role:     Member,
	}
}
