package users

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/corkboardlabs/corkboard/internal/ids"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Account{}); err != nil {
		t.Fatalf("failed to migrate account schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:   db,
		IDProvider: ids.NewUUIDProvider(),
		Clock: func() time.Time {
			return time.Unix(1_700_000_000, 0)
		},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestRegisterCreatesAccount(t *testing.T) {
	service := newTestService(t)

	account, err := service.Register(context.Background(), " A@X.com ", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if account.UserID == "" {
		t.Fatalf("expected generated user id")
	}
	if account.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash == "secret1" || account.PasswordHash == "" {
		t.Fatalf("expected hashed password, got %q", account.PasswordHash)
	}
}

func TestRegisterRejectsInvalidInputBeforeWrite(t *testing.T) {
	service := newTestService(t)

	cases := []struct {
		name     string
		email    string
		password string
		expected error
	}{
		{name: "blank email", email: "   ", password: "secret1", expected: ErrInvalidEmail},
		{name: "malformed email", email: "not-an-address", password: "secret1", expected: ErrInvalidEmail},
		{name: "short password", email: "a@x.com", password: "abc", expected: ErrPasswordTooShort},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := service.Register(context.Background(), testCase.email, testCase.password); !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}

	var count int64
	if err := service.db.Model(&Account{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no accounts written, got %d", count)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Register(context.Background(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := service.Register(context.Background(), "A@x.com", "secret2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticateMatchesRegisteredCredentials(t *testing.T) {
	service := newTestService(t)

	registered, err := service.Register(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	account, err := service.Authenticate(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if account.UserID != registered.UserID {
		t.Fatalf("expected user id %s, got %s", registered.UserID, account.UserID)
	}

	if _, err := service.Authenticate(context.Background(), "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown address, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	service := newTestService(t)

	registered, err := service.Register(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	account, err := service.GetByID(context.Background(), registered.UserID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if account.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", account.Email)
	}

	if _, err := service.GetByID(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
