// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the login account. Staff users administer ballots.
type User struct {
	ID           string
	UserName     string
	Email        string
	Salt         []byte
	PasswordHash []byte
	IsStaff      bool
	CreatedAt    time.Time
}

// Profile carries the voter attributes of a User. Sign is the per-profile
// secret fed to the signature deriver; it never leaves the server.
type Profile struct {
	UserID     string
	District   string
	Sign       string
	MiddleName string
	BirthDate  *time.Time
}

// Identity is a user together with their profile.
type Identity struct {
	User    User
	Profile Profile
}
