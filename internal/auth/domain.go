// Package auth implements credential verification and the access/refresh
// token session lifecycle.
package auth

import "time"

// User represents an account record. Roles carries the role names loaded
// alongside the user; RefreshToken holds the single active refresh token
// (a new sign-in overwrites it).
type User struct {
	ID                       int64
	Username                 string
	Email                    string
	PasswordHash             string
	Avatar                   string
	IsVerified               bool
	VerificationToken        *string
	VerificationTokenExpires *time.Time
	ResetToken               *string
	ResetTokenExpires        *time.Time
	RefreshToken             *string
	Roles                    []string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
