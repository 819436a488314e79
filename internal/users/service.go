package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corkboardlabs/corkboard/internal/auth"
)

const minPasswordLength = 6

var (
	// ErrInvalidEmail indicates the address is empty or not parseable.
	ErrInvalidEmail = errors.New("users: invalid email address")
	// ErrPasswordTooShort indicates the password is below the minimum length.
	ErrPasswordTooShort = fmt.Errorf("users: password shorter than %d characters", minPasswordLength)
	// ErrEmailTaken indicates another account already uses the address.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates an unknown address or wrong password.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrAccountNotFound indicates no account exists for the identifier.
	ErrAccountNotFound = errors.New("users: account not found")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// IDProvider issues unique account identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the account service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service manages account registration and password authentication.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Register creates a new account after validating the address and password.
// Validation failures happen before any database write.
func (s *Service) Register(ctx context.Context, email, password string) (Account, error) {
	normalized := normalizeEmail(email)
	if err := validateEmail(normalized); err != nil {
		return Account{}, err
	}
	if len(password) < minPasswordLength {
		return Account{}, ErrPasswordTooShort
	}

	var existing Account
	err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&existing).Error
	if err == nil {
		return Account{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("account lookup failed", zap.Error(err))
		return Account{}, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return Account{}, err
	}
	userID, err := s.idProvider.NewID()
	if err != nil {
		s.logger.Error("account id generation failed", zap.Error(err))
		return Account{}, err
	}

	account := Account{
		UserID:       userID,
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		s.logger.Error("account insert failed", zap.Error(err), zap.String("email", normalized))
		return Account{}, err
	}
	return account, nil
}

// Authenticate verifies the address/password pair and returns the account.
// Unknown addresses and wrong passwords are indistinguishable to callers.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("account lookup failed", zap.Error(err))
		return Account{}, err
	}

	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	return account, nil
}

// GetByID returns the account for a user identifier.
func (s *Service) GetByID(ctx context.Context, userID string) (Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

func validateEmail(normalized string) error {
	if normalized == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, normalized)
	}
	return nil
}
