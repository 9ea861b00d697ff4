package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/database/users"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/validation"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrAuthRequired     = errors.New("authentication required")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Default reader used when AUTH_MODE=none.
const (
	DefaultUserName  = "Reader"
	DefaultUserEmail = "reader@localhost"
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Count(ctx context.Context) (int64, error)
	EnsureDefaultUser(ctx context.Context, tmpl entities.User) (*entities.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name            string `form:"name" json:"name" validate:"required,max=100"`
	Email           string `form:"email" json:"email" validate:"required,email,max=254"`
	Password        string `form:"password" json:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Timezone        string `form:"timezone" json:"timezone" validate:"omitempty,timezone"`
}

// UserDefaults seed new accounts.
type UserDefaults struct {
	Timezone       string
	WeeklyTarget   int
	EmailReminders bool
}

// Service handles registration, login and the default reader.
type Service struct {
	users      UserStore
	config     config.Auth
	defaults   UserDefaults
	validate   *validation.Validator
	onRegister func(ctx context.Context, user *entities.User)
	log        *logger.Logger
	now        func() time.Time
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth, defaults UserDefaults, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if defaults.Timezone == "" {
		defaults.Timezone = config.DefaultTimezone
	}
	if defaults.WeeklyTarget <= 0 {
		defaults.WeeklyTarget = config.DefaultWeeklyTarget
	}
	return &Service{
		users:    store,
		config:   cfg,
		defaults: defaults,
		validate: validation.New(nil),
		log:      log.With("component", "auth"),
		now:      time.Now,
	}
}

// OnRegister sets a hook that runs after an account is created (welcome email).
func (s *Service) OnRegister(fn func(ctx context.Context, user *entities.User)) {
	s.onRegister = fn
}

// Register validates the input and creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = users.NormalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	tz := in.Timezone
	if tz == "" {
		tz = s.defaults.Timezone
	}
	user := &entities.User{
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   hash,
		Timezone:       tz,
		WeeklyTarget:   s.defaults.WeeklyTarget,
		EmailReminders: s.defaults.EmailReminders,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID)
	if s.onRegister != nil {
		s.onRegister(ctx, user)
	}
	return user, nil
}

// Authenticate checks an email/password pair and records the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidPassword
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureDefaultUser returns the single reader used in AUTH_MODE=none,
// creating it on first start.
func (s *Service) EnsureDefaultUser(ctx context.Context) (*entities.User, error) {
	user, err := s.users.EnsureDefaultUser(ctx, entities.User{
		Name:           DefaultUserName,
		Email:          DefaultUserEmail,
		Timezone:       s.defaults.Timezone,
		WeeklyTarget:   s.defaults.WeeklyTarget,
		EmailReminders: s.defaults.EmailReminders,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure default user: %w", err)
	}
	return user, nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	n, err := s.users.Count(ctx)
	return n > 0, err
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// Mode returns the current authentication mode.
func (s *Service) Mode() config.AuthMode {
	return s.config.Mode
}
