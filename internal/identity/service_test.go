package identity

import (
	"context"
	"errors"
	"testing"
)

func validCredentials() Credentials {
	return Credentials{Name: "Omar", Email: "Omar@Example.com", Password: "supersecret"}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	user, err := svc.Register(context.Background(), validCredentials())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "omar@example.com" {
		t.Fatalf("email = %s, want lowercased", user.Email)
	}
	if user.ID == "" {
		t.Fatalf("user id not assigned")
	}
	if string(user.PasswordHash) == "supersecret" {
		t.Fatalf("password stored in plain text")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	creds := validCredentials()
	creds.Name = " "
	if _, err := svc.Register(ctx, creds); err == nil {
		t.Fatalf("expected error for blank name")
	}

	creds = validCredentials()
	creds.Email = "not-an-email"
	if _, err := svc.Register(ctx, creds); err == nil {
		t.Fatalf("expected error for invalid email")
	}

	creds = validCredentials()
	creds.Password = "short"
	if _, err := svc.Register(ctx, creds); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, validCredentials()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, validCredentials()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, validCredentials())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(ctx, "omar@example.com", "supersecret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := svc.Authenticate(ctx, "omar@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, validCredentials())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name, err := svc.DisplayName(ctx, user.ID)
	if err != nil {
		t.Fatalf("display name: %v", err)
	}
	if name != "Omar" {
		t.Fatalf("name = %s, want Omar", name)
	}

	if _, err := svc.DisplayName(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
