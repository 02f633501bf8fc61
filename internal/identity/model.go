package identity

import (
	"strings"
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// NormalizeRole maps any stored or submitted role to a known one. Blank and
// unknown values become RoleUser. Repositories apply it on every read.
func NormalizeRole(role string) Role {
	if strings.EqualFold(strings.TrimSpace(role), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// User is a persisted account record keyed by email.
type User struct {
	ID           string
	PersonalID   string
	Name         string
	Email        string
	Address      string
	PhoneNumber  string
	Role         Role
	PasswordHash []byte
	IsVerified   bool
	OTP          string
	OTPExpiresAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// registrationExpired reports whether an unverified account has outlived its
// OTP and should be discarded.
func (u User) registrationExpired(now time.Time) bool {
	return !u.IsVerified && !u.OTPExpiresAt.IsZero() && now.After(u.OTPExpiresAt)
}

// Document is the client-facing view of a user. It never carries the
// password hash or the pending OTP.
type Document struct {
	ID          string    `json:"_id"`
	PersonalID  string    `json:"personal_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Document returns the public view of u.
func (u User) Document() Document {
	return Document{
		ID:          u.ID,
		PersonalID:  u.PersonalID,
		Name:        u.Name,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		Role:        NormalizeRole(string(u.Role)),
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Summary is the short identity returned on sign-in and admin creation.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Summary returns the short identity of u.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: NormalizeRole(string(u.Role))}
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	PersonalID      string `json:"personal_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
}

// NewUserInput is the admin creation payload.
type NewUserInput struct {
	PersonalID  string `json:"personal_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
}

// UpdateInput is a partial admin update; nil fields are left unchanged.
type UpdateInput struct {
	PersonalID      *string `json:"personal_id"`
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
	Address         *string `json:"address"`
	PhoneNumber     *string `json:"phone_number"`
	Role            *string `json:"role"`
}
