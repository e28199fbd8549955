package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/entityhub/entity-manager/internal/core/domain"
)

const (
	collectionEntities = "entities"
	maxListResults     = 1000
)

type EntityRepository struct {
	col *mongo.Collection
}

func NewEntityRepository(db *mongo.Database) *EntityRepository {
	return &EntityRepository{col: db.Collection(collectionEntities)}
}

// List returns the owner's entities matching f, newest first.
func (r *EntityRepository) List(ctx context.Context, userID string, f domain.EntityFilter) ([]domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(maxListResults)

	cur, err := r.col.Find(ctx, listFilter(userID, f), opts)
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.Entity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return out, nil
}

// listFilter scopes by owner and applies the optional filters. Search is a
// case-insensitive literal substring match on title or description.
func listFilter(userID string, f domain.EntityFilter) bson.M {
	filter := bson.M{"user_id": userID}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
		}
	}
	return filter
}

func (r *EntityRepository) FindByID(ctx context.Context, userID, id string) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.Entity
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("find entity: %w", err)
	}
	return &e, nil
}

func (r *EntityRepository) Create(ctx context.Context, e *domain.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of e, matching on id and owner.
func (r *EntityRepository) Update(ctx context.Context, e *domain.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": e.ID, "user_id": e.UserID}, updateDoc(e))
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

func updateDoc(e *domain.Entity) bson.M {
	set := bson.M{
		"title":      e.Title,
		"category":   e.Category,
		"status":     e.Status,
		"priority":   e.Priority,
		"updated_at": e.UpdatedAt,
	}
	if e.Description == nil {
		return bson.M{"$set": set, "$unset": bson.M{"description": ""}}
	}
	set["description"] = *e.Description
	return bson.M{"$set": set}
}

func (r *EntityRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

func (r *EntityRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"user_id": userID})
}

// EnsureIndexes creates the indexes used by the owner-scoped queries.
func (r *EntityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
