package domain

import (
	"context"
	"errors"
	"testing"
)

func TestRequireIdentity(t *testing.T) {
	if _, err := RequireIdentity(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("RequireIdentity(anonymous) error = %v, want ErrUnauthenticated", err)
	}
	if ErrUnauthenticated.Message != "Authentication required to access this resource." {
		t.Errorf("ErrUnauthenticated.Message = %q", ErrUnauthenticated.Message)
	}

	id := &Identity{AccountID: 7, Email: "a@example.com"}
	got, err := RequireIdentity(WithIdentity(context.Background(), id))
	if err != nil {
		t.Fatalf("RequireIdentity() error = %v", err)
	}
	if got != id {
		t.Errorf("RequireIdentity() = %+v, want %+v", got, id)
	}
}
