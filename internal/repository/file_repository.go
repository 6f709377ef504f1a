package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
)

type FileRepository interface {
	Attach(ctx context.Context, userID uuid.UUID, url string, kind model.FileKind) error
	ListURLs(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error)
}

type postgresFileRepository struct {
	db *sqlx.DB
}

func NewPostgresFileRepository(db *sqlx.DB) FileRepository {
	return &postgresFileRepository{db: db}
}

// Attach inserts unconditionally: the same URL may be stored more than once.
func (r *postgresFileRepository) Attach(ctx context.Context, userID uuid.UUID, url string, kind model.FileKind) error {
	query := `INSERT INTO user_files (user_id, url, kind) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, userID, url, kind)
	return err
}

// ListURLs returns the URLs in insertion order.
func (r *postgresFileRepository) ListURLs(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error) {
	urls := []string{}
	query := `SELECT url FROM user_files WHERE user_id = $1 AND kind = $2 ORDER BY id`
	err := r.db.SelectContext(ctx, &urls, query, userID, kind)

	if err != nil {
		return nil, err
	}

	return urls, nil
}
