package repository

import (
	"context"
	"time"

	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Review, error)
	GetByCampground(ctx context.Context, campgroundID bson.ObjectID) ([]*models.Review, error)
	GetByCampgroundAndAuthor(ctx context.Context, campgroundID, authorID bson.ObjectID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id bson.ObjectID) error
	DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error)
}

type reviewRepository struct {
	col     *mongo.Collection
	log     *observability.RepoLogger
	metrics *observability.QueryMetrics
	traces  *observability.TraceLayer
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{
		col:     db.Collection(database.ReviewsCollection),
		log:     observability.NewRepoLogger(database.ReviewsCollection),
		metrics: observability.NewQueryMetrics(),
		traces:  observability.GetTraceLayer(),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Create", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("create", database.ReviewsCollection)()

	now := time.Now().UTC()
	if review.ID.IsZero() {
		review.ID = bson.NewObjectID()
	}
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, review); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"review_id": review.ID.Hex()})
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByID", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", database.ReviewsCollection)()

	var review models.Review
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByCampground returns the campground's reviews newest first. The rating
// aggregate is recomputed from this result, so it only ever reflects
// reviews that still exist.
func (r *reviewRepository) GetByCampground(ctx context.Context, campgroundID bson.ObjectID) ([]*models.Review, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByCampground", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_campground", database.ReviewsCollection)()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"campground": campgroundID}, opts)
	if err != nil {
		r.log.LogError(ctx, err, "get_by_campground")
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []*models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) GetByCampgroundAndAuthor(ctx context.Context, campgroundID, authorID bson.ObjectID) (*models.Review, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByCampgroundAndAuthor", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_campground_and_author", database.ReviewsCollection)()

	var review models.Review
	err := r.col.FindOne(ctx, bson.M{"campground": campgroundID, "author.id": authorID}).Decode(&review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Update", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("update", database.ReviewsCollection)()

	review.UpdatedAt = time.Now().UTC()
	result, err := r.col.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"review_id": review.ID.Hex()})
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Delete", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("delete", database.ReviewsCollection)()

	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.log.LogDelete(ctx, map[string]interface{}{"review_id": id.Hex()})
	return nil
}

func (r *reviewRepository) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "DeleteByIDs", database.ReviewsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("delete_by_ids", database.ReviewsCollection)()

	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.log.LogError(ctx, err, "delete_by_ids")
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"deleted": result.DeletedCount})
	return result.DeletedCount, nil
}
