package service_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/repository"
)

// fakeUserRepo is an in-memory stand-in enforcing the same uniqueness rules
// the real store does, surfacing them as pgconn errors.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func fkViolation() error {
	return &pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return uuid.Nil, uniqueViolation()
		}
	}

	stored := *user
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(ctx context.Context, id uuid.UUID, update repository.UserUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return 0, nil
	}

	for otherID, other := range r.users {
		if otherID == id {
			continue
		}
		if update.Username != nil && other.Username == *update.Username {
			return 0, uniqueViolation()
		}
		if update.Email != nil && other.Email == *update.Email {
			return 0, uniqueViolation()
		}
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = *update.ProfilePicture
	}
	user.UpdatedAt = time.Now()
	return 1, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

type attachedFile struct {
	url  string
	kind model.FileKind
}

type fakeFileRepo struct {
	mu    sync.Mutex
	users *fakeUserRepo
	files map[uuid.UUID][]attachedFile
}

func newFakeFileRepo(users *fakeUserRepo) *fakeFileRepo {
	return &fakeFileRepo{users: users, files: make(map[uuid.UUID][]attachedFile)}
}

func (r *fakeFileRepo) Attach(ctx context.Context, userID uuid.UUID, url string, kind model.FileKind) error {
	if _, err := r.users.FindByID(ctx, userID); err != nil {
		return fkViolation()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[userID] = append(r.files[userID], attachedFile{url: url, kind: kind})
	return nil
}

func (r *fakeFileRepo) ListURLs(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	urls := []string{}
	for _, f := range r.files[userID] {
		if f.kind == kind {
			urls = append(urls, f.url)
		}
	}
	return urls, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu      sync.Mutex
	updated []uuid.UUID
	deleted []uuid.UUID
}

func (p *fakePublisher) PublishUserUpdated(userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, userID)
	return nil
}

func (p *fakePublisher) PublishUserDeleted(userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, userID)
	return nil
}
