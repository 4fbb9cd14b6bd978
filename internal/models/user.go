package models

import "time"

// Profile defaults applied at registration.
const (
	DefaultPhoto = "https://i.ibb.co/3k2BG3T/profile.png"
	DefaultPhone = "+254"
	DefaultBio   = "bio"
)

// Account represents a registered user.
type Account struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose this to the client
	Photo        string    `json:"photo" db:"photo"`
	Phone        string    `json:"phone" db:"phone"`
	Bio          string    `json:"bio" db:"bio"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicAccount is the subset of an account that may be returned to a client.
type PublicAccount struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Phone string `json:"phone,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

// Public returns the full client-safe view.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Photo: a.Photo,
		Phone: a.Phone,
		Bio:   a.Bio,
	}
}

// Summary returns the identity-only view sent after login.
func (a *Account) Summary() PublicAccount {
	return PublicAccount{ID: a.ID, Name: a.Name, Email: a.Email}
}
