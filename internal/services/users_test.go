package services

import (
	"context"
	"errors"
	"testing"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "anna")
	if u.Password == "password-123" || u.Password == "" {
		t.Error("Expected password to be stored hashed")
	}

	_, err := f.users.CreateUser(ctx, UserInput{
		Email: "ANNA@example.com", Username: "anna", FirstName: "A", LastName: "B", Password: "password-123",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["email"]; !ok {
		t.Errorf("Expected duplicate email error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["username"]; !ok {
		t.Errorf("Expected duplicate username error, got %v", verr.Fields)
	}

	_, err = f.users.CreateUser(ctx, UserInput{Email: "bad", Username: "has space", Password: "short"})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "username", "first_name", "last_name", "password"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("Expected error on %s, got %v", field, verr.Fields)
		}
	}
}

func TestAuthenticateAndSetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "anna")

	if _, err := f.users.Authenticate(ctx, "Anna@Example.com", "password-123"); err != nil {
		t.Errorf("Expected login to succeed, got %v", err)
	}
	if _, err := f.users.Authenticate(ctx, "anna@example.com", "nope"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials, got %v", err)
	}
	if _, err := f.users.Authenticate(ctx, "ghost@example.com", "password-123"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials for unknown email, got %v", err)
	}

	var verr *ValidationError
	if err := f.users.SetPassword(ctx, u.ID, "wrong", "new-password-1"); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for wrong current password, got %v", err)
	}
	if err := f.users.SetPassword(ctx, u.ID, "password-123", "new-password-1"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := f.users.Authenticate(ctx, "anna@example.com", "new-password-1"); err != nil {
		t.Errorf("Expected new password to work, got %v", err)
	}
}

func TestUserViewIsSubscribed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := f.user(t, "anna")
	boris := f.user(t, "boris")
	if _, err := f.subs.Subscribe(ctx, boris.ID, anna.ID, 0); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	v, err := f.users.UserView(ctx, anna, boris.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !v.IsSubscribed {
		t.Error("Expected boris to see anna as subscribed")
	}
	v, _ = f.users.UserView(ctx, anna, 0)
	if v.IsSubscribed {
		t.Error("Expected anonymous viewer to see false")
	}
	v, _ = f.users.UserView(ctx, boris, anna.ID)
	if v.IsSubscribed {
		t.Error("Expected subscription to be directed")
	}

	list, total, err := f.users.ListUsers(ctx, boris.ID, NewPage(1, 10, 6))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || list[0].Username != "anna" || !list[0].IsSubscribed {
		t.Errorf("Unexpected user list %+v", list)
	}

	if _, err := f.users.GetUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
