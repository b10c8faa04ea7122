package profile

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revlinehq/revline-api/internal/models"
)

// Repository defines persistence operations for display profiles
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

// MongoRepository implements Repository using the profiles collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// GetByUserID returns (nil, nil) when no profile row exists.
func (r *MongoRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates or replaces the single profile row for the user.
func (r *MongoRepository) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	filter := bson.M{"user_id": p.UserID}
	update := bson.M{"$set": bson.M{
		"display_name": p.DisplayName,
		"avatar_key":   p.AvatarKey,
		"updated_at":   p.UpdatedAt,
		"created_at":   p.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.Profile
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Shouldn't happen because of upsert, but handle gracefully
			return p, nil
		}
		return nil, err
	}
	return &updated, nil
}
