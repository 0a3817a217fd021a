package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const collectionBlacklist = "token_blacklist"

// BlacklistRepository stores revoked token ids in MongoDB.
type BlacklistRepository struct {
	col *mongo.Collection
}

var _ ports.BlacklistRepository = (*BlacklistRepository)(nil)

func NewBlacklistRepository(db *mongo.Database) *BlacklistRepository {
	return &BlacklistRepository{col: db.Collection(collectionBlacklist)}
}

type blacklistDoc struct {
	TokenID   string    `bson:"token_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	RevokedAt time.Time `bson:"revoked_at"`
}

func (r *BlacklistRepository) Add(ctx context.Context, e ports.BlacklistEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := blacklistDoc{
		TokenID:   e.TokenID,
		UserID:    e.UserID,
		ExpiresAt: e.ExpiresAt.UTC(),
		RevokedAt: e.RevokedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTokenInvalid
		}
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

func (r *BlacklistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"token_id": tokenID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("lookup blacklist: %w", err)
	}
	return n > 0, nil
}

func (r *BlacklistRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
