package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfilePicture is used until the user uploads their own avatar.
const DefaultProfilePicture = "https://ui-avatars.com/api/?background=random"

type User struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	PasswordHash   string    `db:"password_hash"`
	ProfilePicture string    `db:"profile_picture"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
