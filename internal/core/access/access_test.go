package access

import (
	"context"
	"errors"
	"testing"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/token"
)

type stubFinder struct {
	users map[string]*domain.User
	err   error
	calls int
}

func (f *stubFinder) FindByID(_ context.Context, id string) (*domain.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

type stubVerifier struct {
	claims *token.Claims
	err    error
	gotTyp token.Type
	gotRaw string
}

func (v *stubVerifier) Verify(_ context.Context, raw string, typ token.Type) (*token.Claims, error) {
	v.gotRaw, v.gotTyp = raw, typ
	return v.claims, v.err
}

func TestAuthorize(t *testing.T) {
	common := &domain.User{ID: "c"}
	staff := &domain.User{ID: "s", IsStaff: true}
	super := &domain.User{ID: "a", IsSuperuser: true}

	cases := []struct {
		user *domain.User
		req  Requirement
		want bool
	}{
		{common, AuthenticatedAny, true},
		{common, StaffOrAdmin, false},
		{staff, StaffOrAdmin, true},
		{super, StaffOrAdmin, true},
		{nil, AuthenticatedAny, false},
	}
	for _, c := range cases {
		if got := Authorize(c.user, c.req); got != c.want {
			t.Fatalf("Authorize(%v, %d) = %v, want %v", c.user, c.req, got, c.want)
		}
	}
}

func TestResolveTarget_NonSuperuserIgnoresForeignID(t *testing.T) {
	finder := &stubFinder{users: map[string]*domain.User{"b": {ID: "b"}}}
	acting := &domain.User{ID: "a", IsStaff: true}

	got, err := ResolveTarget(context.Background(), finder, acting, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "a" {
		t.Fatalf("expected self, got %s", got.ID)
	}
	if finder.calls != 0 {
		t.Fatalf("foreign id must not be looked up, got %d calls", finder.calls)
	}
}

func TestResolveTarget_SuperuserByID(t *testing.T) {
	finder := &stubFinder{users: map[string]*domain.User{"b": {ID: "b", Email: "b@example.com"}}}
	acting := &domain.User{ID: "a", IsSuperuser: true}

	got, err := ResolveTarget(context.Background(), finder, acting, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "b" {
		t.Fatalf("expected b, got %s", got.ID)
	}
}

func TestResolveTarget_SuperuserUnknownID(t *testing.T) {
	finder := &stubFinder{users: map[string]*domain.User{}}
	acting := &domain.User{ID: "a", IsSuperuser: true}

	if _, err := ResolveTarget(context.Background(), finder, acting, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveTarget_SuperuserWithoutID(t *testing.T) {
	acting := &domain.User{ID: "a", IsSuperuser: true}
	got, err := ResolveTarget(context.Background(), &stubFinder{}, acting, "")
	if err != nil || got.ID != "a" {
		t.Fatalf("expected self, got %v %v", got, err)
	}
}

func TestGuard_Authenticate(t *testing.T) {
	finder := &stubFinder{users: map[string]*domain.User{
		"u1": {ID: "u1", IsActive: true},
		"u2": {ID: "u2", IsActive: false},
	}}

	t.Run("valid", func(t *testing.T) {
		v := &stubVerifier{claims: &token.Claims{UserID: "u1"}}
		u, err := NewGuard(v, finder).Authenticate(context.Background(), "Bearer abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != "u1" || v.gotRaw != "abc" || v.gotTyp != token.TypeAccess {
			t.Fatalf("unexpected result: %+v raw=%s typ=%s", u, v.gotRaw, v.gotTyp)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := NewGuard(&stubVerifier{}, finder).Authenticate(context.Background(), "")
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := NewGuard(&stubVerifier{}, finder).Authenticate(context.Background(), "Token abc")
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		v := &stubVerifier{err: domain.ErrTokenInvalid}
		_, err := NewGuard(v, finder).Authenticate(context.Background(), "Bearer abc")
		if !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		v := &stubVerifier{claims: &token.Claims{UserID: "ghost"}}
		_, err := NewGuard(v, finder).Authenticate(context.Background(), "Bearer abc")
		if !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("inactive user", func(t *testing.T) {
		v := &stubVerifier{claims: &token.Claims{UserID: "u2"}}
		_, err := NewGuard(v, finder).Authenticate(context.Background(), "Bearer abc")
		if !errors.Is(err, domain.ErrUserInactive) {
			t.Fatalf("expected ErrUserInactive, got %v", err)
		}
	})
}
