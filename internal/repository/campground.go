// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"regexp"
	"time"

	"wanderlust/internal/cache"
	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CampgroundRepository defines the interface for campground data operations
type CampgroundRepository interface {
	Create(ctx context.Context, campground *models.Campground) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Campground, error)
	GetBySlug(ctx context.Context, slug string) (*models.Campground, error)
	List(ctx context.Context, limit, offset int) ([]*models.Campground, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Campground, error)
	CountSearch(ctx context.Context, query string) (int64, error)
	Save(ctx context.Context, campground *models.Campground) error
	Delete(ctx context.Context, id bson.ObjectID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// campgroundRepository implements CampgroundRepository
type campgroundRepository struct {
	col     *mongo.Collection
	log     *observability.RepoLogger
	metrics *observability.QueryMetrics
	traces  *observability.TraceLayer
}

// NewCampgroundRepository creates a new campground repository
func NewCampgroundRepository(db *mongo.Database) CampgroundRepository {
	return &campgroundRepository{
		col:     db.Collection(database.CampgroundsCollection),
		log:     observability.NewRepoLogger(database.CampgroundsCollection),
		metrics: observability.NewQueryMetrics(),
		traces:  observability.GetTraceLayer(),
	}
}

// searchFilter matches the campground name against the query as a literal,
// case-insensitive substring. Regex metacharacters in the query are escaped
// so user input never changes the match semantics.
func searchFilter(query string) bson.M {
	return bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
}

func (r *campgroundRepository) Create(ctx context.Context, campground *models.Campground) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Create", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("create", database.CampgroundsCollection)()

	now := time.Now().UTC()
	if campground.ID.IsZero() {
		campground.ID = bson.NewObjectID()
	}
	campground.CreatedAt = now
	campground.UpdatedAt = now
	if campground.Comments == nil {
		campground.Comments = []bson.ObjectID{}
	}
	if campground.Reviews == nil {
		campground.Reviews = []bson.ObjectID{}
	}
	if campground.Likes == nil {
		campground.Likes = []bson.ObjectID{}
	}

	if _, err := r.col.InsertOne(ctx, campground); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"slug": campground.Slug})
	return nil
}

func (r *campgroundRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Campground, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByID", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", database.CampgroundsCollection)()

	var campground models.Campground
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&campground); err != nil {
		return nil, err
	}
	return &campground, nil
}

func (r *campgroundRepository) GetBySlug(ctx context.Context, slug string) (*models.Campground, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetBySlug", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_slug", database.CampgroundsCollection)()

	var campground models.Campground
	err := cache.Aside(ctx, cache.CampgroundKey(slug), &campground, cache.CampgroundTTL, func() error {
		return r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&campground)
	})
	if err != nil {
		return nil, err
	}
	return &campground, nil
}

func (r *campgroundRepository) List(ctx context.Context, limit, offset int) ([]*models.Campground, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "List", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("list", database.CampgroundsCollection)()

	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *campgroundRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Count", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("count", database.CampgroundsCollection)()

	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *campgroundRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Campground, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Search", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("search", database.CampgroundsCollection)()

	return r.find(ctx, searchFilter(query), limit, offset)
}

func (r *campgroundRepository) CountSearch(ctx context.Context, query string) (int64, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "CountSearch", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("count_search", database.CampgroundsCollection)()

	return r.col.CountDocuments(ctx, searchFilter(query))
}

// find pages through campgrounds in the store's natural insertion order.
// Listing deliberately applies no sort beyond the pagination slice.
func (r *campgroundRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*models.Campground, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		r.log.LogError(ctx, err, "find")
		return nil, err
	}
	defer cursor.Close(ctx)

	campgrounds := []*models.Campground{}
	if err := cursor.All(ctx, &campgrounds); err != nil {
		return nil, err
	}
	return campgrounds, nil
}

// Save replaces the whole document. Concurrent saves of the same campground
// are last write wins.
func (r *campgroundRepository) Save(ctx context.Context, campground *models.Campground) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Save", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("save", database.CampgroundsCollection)()

	campground.UpdatedAt = time.Now().UTC()
	result, err := r.col.ReplaceOne(ctx, bson.M{"_id": campground.ID}, campground)
	if err != nil {
		r.log.LogError(ctx, err, "save")
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	cache.InvalidateCampground(ctx, campground.Slug)
	r.log.LogUpdate(ctx, map[string]interface{}{"slug": campground.Slug})
	return nil
}

func (r *campgroundRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Delete", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("delete", database.CampgroundsCollection)()

	var campground models.Campground
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&campground); err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	cache.InvalidateCampground(ctx, campground.Slug)
	r.log.LogDelete(ctx, map[string]interface{}{"slug": campground.Slug})
	return nil
}

func (r *campgroundRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "SlugExists", database.CampgroundsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("slug_exists", database.CampgroundsCollection)()

	count, err := r.col.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
