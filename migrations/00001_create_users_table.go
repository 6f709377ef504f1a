package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsersTable, downCreateUsersTable)
}

func upCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE users (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  username TEXT UNIQUE NOT NULL,
	  email TEXT UNIQUE NOT NULL,
	  password_hash TEXT NOT NULL,
	  profile_picture TEXT NOT NULL DEFAULT 'https://ui-avatars.com/api/?background=random',
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS users;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
