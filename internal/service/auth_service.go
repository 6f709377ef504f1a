package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sukhmangill977/majoor2.0/internal/jwt"
	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// Register creates the user and immediately issues a session token, so a
// fresh signup lands authenticated.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		PasswordHash:   string(hashedPassword),
		ProfilePicture: model.DefaultProfilePicture,
	}

	newID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, "", ErrConflict
		}
		return nil, "", err
	}

	user.ID = newID

	token, err := jwt.GenerateToken(user, jwt.DefaultTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user, jwt.DefaultTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}
