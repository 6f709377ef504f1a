package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sukhmangill977/majoor2.0/internal/events"
	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/repository"
)

// UpdateUserDTO carries the optional profile fields; a nil pointer leaves the
// stored value untouched.
type UpdateUserDTO struct {
	Username       *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

type UserService interface {
	UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, dto UpdateUserDTO) (*model.User, error)
	AttachFile(ctx context.Context, callerID, targetID uuid.UUID, url string, kind model.FileKind) ([]string, error)
	ListFiles(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error)
	DeleteAccount(ctx context.Context, callerID, targetID uuid.UUID) error
}

type userService struct {
	userRepo  repository.UserRepository
	fileRepo  repository.FileRepository
	publisher events.EventPublisher
}

func NewUserService(userRepo repository.UserRepository, fileRepo repository.FileRepository, publisher events.EventPublisher) UserService {
	return &userService{
		userRepo:  userRepo,
		fileRepo:  fileRepo,
		publisher: publisher,
	}
}

// UpdateProfile applies a partial update to the caller's own record. The
// password is re-hashed before it touches the repository; the write itself is
// a single UPDATE statement.
func (s *userService) UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, dto UpdateUserDTO) (*model.User, error) {
	if callerID != targetID {
		return nil, ErrForbidden
	}

	update := repository.UserUpdate{
		Username:       dto.Username,
		Email:          dto.Email,
		ProfilePicture: dto.ProfilePicture,
	}

	if dto.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashedStr := string(hashed)
		update.PasswordHash = &hashedStr
	}

	rows, err := s.userRepo.Update(ctx, targetID, update)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishUserUpdated(user.ID)
	}

	return user, nil
}

func (s *userService) AttachFile(ctx context.Context, callerID, targetID uuid.UUID, url string, kind model.FileKind) ([]string, error) {
	if callerID != targetID {
		return nil, ErrForbidden
	}

	if err := s.fileRepo.Attach(ctx, targetID, url, kind); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.fileRepo.ListURLs(ctx, targetID, kind)
}

func (s *userService) ListFiles(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error) {
	urls, err := s.fileRepo.ListURLs(ctx, userID, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, err
	}
	return urls, nil
}

// DeleteAccount removes the user row; attachments cascade at the store layer.
func (s *userService) DeleteAccount(ctx context.Context, callerID, targetID uuid.UUID) error {
	if callerID != targetID {
		return ErrForbidden
	}

	rows, err := s.userRepo.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	if s.publisher != nil {
		s.publisher.PublishUserDeleted(targetID)
	}

	return nil
}
