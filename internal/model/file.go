package model

import (
	"time"

	"github.com/google/uuid"
)

// FileKind classifies an uploaded file so the client knows whether the URL
// belongs in the avatar slot or in the attachment list.
type FileKind string

const (
	FileKindAvatar FileKind = "avatar"
	FileKindPDF    FileKind = "pdf"
)

type UserFile struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	URL       string    `db:"url"`
	Kind      FileKind  `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
}
