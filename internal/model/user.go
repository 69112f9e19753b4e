package model

import "github.com/google/uuid"

// User is a profile as resolved through the identity directory. This core
// never mutates users; it only reads them for display and validation.
type User struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	AvatarPath string
}

// DisplayName is "first name + last name" as rendered in conversation
// titles and notification texts.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
