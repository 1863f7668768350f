package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingPasswordFailed = errors.New("hashing password failed")
	ErrInvalidEmailFormat    = errors.New("invalid email format")
	ErrPasswordMismatch      = errors.New("password mismatch")
)

type UserService interface {
	Register(ctx context.Context, email, password string) (*User, error)
	// VerifyCredentials confirms identity. It returns ErrUserNotFound and
	// ErrPasswordMismatch as distinct errors; collapsing them into one
	// caller-visible outcome is the auth layer's job.
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
	ReadUserByID(ctx context.Context, id uint) (*User, error)
}

type userService struct {
	repo   UserRepository
	logger *zap.Logger
}

func NewUserService(repo UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, email, password string) (*User, error) {
	if err := s.validateEmail(email); err != nil {
		s.logger.Warn("invalid email format", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if err := CheckPassword(password); err != nil {
		s.logger.Warn("invalid password format", zap.Error(err))
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, ErrHashingPasswordFailed
	}

	user := NewUser(email, string(hashed))
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user in repository", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.ReadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrPasswordMismatch
	}

	// best effort, a failed LastSeen update must not fail the login
	user.LastSeen = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Warn("failed to update last seen", zap.Uint("id", user.ID), zap.Error(err))
	}
	return user, nil
}

func (s *userService) ReadUserByID(ctx context.Context, id uint) (*User, error) {
	user, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user by ID", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}
