package models

import "time"

// User represents a storefront customer account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the projection returned by the auth endpoints.
type PublicUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session is the identity carried by a valid session token. It is a hint,
// never an authorization gate for orders or contact messages.
type Session struct {
	UserID    uint
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
