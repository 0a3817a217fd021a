package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

func userBSON(id, email string, active bool) bson.D {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: email},
		{Key: "username", Value: email},
		{Key: "password_hash", Value: "hash"},
		{Key: "first_name", Value: "Ana"},
		{Key: "last_name", Value: "Lima"},
		{Key: "is_active", Value: active},
		{Key: "is_staff", Value: false},
		{Key: "is_superuser", Value: false},
		{Key: "language", Value: "EN"},
		{Key: "timezone", Value: "UTC+0"},
		{Key: "currency", Value: "USD"},
		{Key: "last_login", Value: nil},
		{Key: "created_at", Value: created},
		{Key: "updated_at", Value: created},
	}
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "db." + collectionUsers

	mt.Run("find by id decodes the document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userBSON("u1", "a@example.com", true)))

		u, err := NewUserRepository(mt.DB).FindByID(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != "u1" || u.Email != "a@example.com" || !u.IsActive || u.LastLogin != nil {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("find by email maps no documents to not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewUserRepository(mt.DB).FindByEmail(context.Background(), "ghost@example.com")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("create maps duplicate key to email taken", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKey())

		err := NewUserRepository(mt.DB).Create(context.Background(), &domain.User{ID: "u1", Email: "a@example.com"})
		if !errors.Is(err, domain.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("set active reports whether a document changed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		changed, err := repo.SetActive(context.Background(), "u1", false)
		if err != nil || !changed {
			t.Fatalf("expected first flip to change, got %v %v", changed, err)
		}
		changed, err = repo.SetActive(context.Background(), "u1", false)
		if err != nil || changed {
			t.Fatalf("expected second flip to be a no-op, got %v %v", changed, err)
		}
	})

	mt.Run("update stores client values literally", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userBSON("u1", "a@example.com", true)}))

		first := "$password_hash"
		if _, err := NewUserRepository(mt.DB).Update(context.Background(), "u1", domain.UserPatch{FirstName: &first}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cmd := mt.GetStartedEvent().Command
		got, ok := cmd.Lookup("update", "0", "$set", "first_name", "$literal").StringValueOK()
		if !ok || got != first {
			t.Fatalf("expected first_name wrapped in $literal, got %s", cmd.Lookup("update"))
		}
		if _, bare := cmd.Lookup("update", "0", "$set", "first_name").StringValueOK(); bare {
			t.Fatalf("first_name sent as a bare string: %s", cmd.Lookup("update"))
		}
		if path, _ := cmd.Lookup("update", "1", "$set", "username").StringValueOK(); path != "$email" {
			t.Fatalf("expected username to follow the stored email, got %q", path)
		}
	})

	mt.Run("set password on a missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewUserRepository(mt.DB).SetPassword(context.Background(), "ghost", "hash")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestBlacklistRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "db." + collectionBlacklist

	mt.Run("add twice fails the second time", func(mt *mtest.T) {
		repo := NewBlacklistRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), duplicateKey())

		entry := ports.BlacklistEntry{TokenID: "jti-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour), RevokedAt: time.Now()}
		if err := repo.Add(context.Background(), entry); err != nil {
			t.Fatalf("first add: %v", err)
		}
		if err := repo.Add(context.Background(), entry); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	mt.Run("contains counts the token id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}))

		ok, err := NewBlacklistRepository(mt.DB).Contains(context.Background(), "jti-1")
		if err != nil || !ok {
			t.Fatalf("expected token to be listed, got %v %v", ok, err)
		}
	})
}
