// Package users implements account administration: search, show, create,
// update and removal, with ownership-scoped access for non-admins.
package users

import "time"

// RoleRef is the role projection embedded in user responses.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the public projection of an account record.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	IsVerified bool      `json:"isVerified"`
	Roles      []RoleRef `json:"roles"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
