package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
)

// UserUpdate carries the optional fields of a partial profile update. Nil
// means "leave unchanged".
type UserUpdate struct {
	Username       *string
	Email          *string
	PasswordHash   *string
	ProfilePicture *string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	query := `INSERT INTO users (username, email, password_hash, profile_picture) VALUES ($1, $2, $3, $4) RETURNING id`
	var newID uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.ProfilePicture).Scan(&newID)

	if err != nil {
		return uuid.Nil, err
	}

	return newID, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT id, username, email, password_hash, profile_picture, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT id, username, email, password_hash, profile_picture, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Update applies the supplied fields in a single UPDATE statement and returns
// the number of rows touched, so callers can distinguish a missing user from
// a successful write.
func (r *postgresUserRepository) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (int64, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if update.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argID))
		args = append(args, *update.Username)
		argID++
	}
	if update.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *update.Email)
		argID++
	}
	if update.PasswordHash != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argID))
		args = append(args, *update.PasswordHash)
		argID++
	}
	if update.ProfilePicture != nil {
		setClauses = append(setClauses, fmt.Sprintf("profile_picture = $%d", argID))
		args = append(args, *update.ProfilePicture)
		argID++
	}

	if len(setClauses) == 0 {
		return r.touch(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// touch keeps the empty-update case observable: the row must still exist.
func (r *postgresUserRepository) touch(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresUserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
