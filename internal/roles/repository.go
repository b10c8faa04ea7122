package roles

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revlinehq/revline-api/internal/models"
)

// Repository provides role-assignment persistence operations
type Repository interface {
	ListByUserID(ctx context.Context, userID string) ([]models.RoleAssignment, error)
	Grant(ctx context.Context, userID, role string) error
	Revoke(ctx context.Context, userID, role string) error
}

// MongoRepository implements Repository using the user_roles collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) ListByUserID(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.RoleAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Grant upserts the (user, role) pair so repeated grants stay idempotent.
func (r *MongoRepository) Grant(ctx context.Context, userID, role string) error {
	filter := bson.M{"user_id": userID, "role": role}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"role":       role,
		"created_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *MongoRepository) Revoke(ctx context.Context, userID, role string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "role": role})
	return err
}
