package upload

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revlinehq/revline-api/internal/models"
)

// Repository persists photo metadata rows
type Repository interface {
	Insert(ctx context.Context, p *models.Photo) error
	ListByCar(ctx context.Context, carID string) ([]models.Photo, error)
}

// MongoRepository implements Repository using the photos collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, p *models.Photo) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) ListByCar(ctx context.Context, carID string) ([]models.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"car_id": carID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Photo
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
