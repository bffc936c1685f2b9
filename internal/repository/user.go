package repository

import (
	"context"
	"time"

	"wanderlust/internal/cache"
	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	col     *mongo.Collection
	log     *observability.RepoLogger
	metrics *observability.QueryMetrics
	traces  *observability.TraceLayer
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		col:     db.Collection(database.UsersCollection),
		log:     observability.NewRepoLogger(database.UsersCollection),
		metrics: observability.NewQueryMetrics(),
		traces:  observability.GetTraceLayer(),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Create", database.UsersCollection)
	defer span.End()
	defer r.metrics.TrackQuery("create", database.UsersCollection)()

	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"username": user.Username})
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByID", database.UsersCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", database.UsersCollection)()

	// Cached; ownership checks resolve the acting user on every mutation.
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id.Hex()), &user, cache.UserTTL, func() error {
		return r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs returns the users for the given IDs in the input order. Unknown
// IDs are skipped.
func (r *userRepository) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByIDs", database.UsersCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_ids", database.UsersCollection)()

	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.log.LogError(ctx, err, "get_by_ids")
		return nil, err
	}
	defer cursor.Close(ctx)

	var fetched []*models.User
	if err := cursor.All(ctx, &fetched); err != nil {
		return nil, err
	}

	byID := make(map[bson.ObjectID]*models.User, len(fetched))
	for _, u := range fetched {
		byID[u.ID] = u
	}

	ordered := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByUsername", database.UsersCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_username", database.UsersCollection)()

	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByEmail", database.UsersCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_email", database.UsersCollection)()

	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
