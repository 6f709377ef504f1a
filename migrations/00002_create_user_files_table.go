package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUserFilesTable, downCreateUserFilesTable)
}

func upCreateUserFilesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE user_files (
	  id BIGSERIAL PRIMARY KEY,
	  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  url TEXT NOT NULL,
	  kind TEXT NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX idx_user_files_user_id ON user_files(user_id);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateUserFilesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS user_files;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
