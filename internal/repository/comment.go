package repository

import (
	"context"
	"time"

	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Comment, error)
	GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id bson.ObjectID) error
	DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error)
}

type commentRepository struct {
	col     *mongo.Collection
	log     *observability.RepoLogger
	metrics *observability.QueryMetrics
	traces  *observability.TraceLayer
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *mongo.Database) CommentRepository {
	return &commentRepository{
		col:     db.Collection(database.CommentsCollection),
		log:     observability.NewRepoLogger(database.CommentsCollection),
		metrics: observability.NewQueryMetrics(),
		traces:  observability.GetTraceLayer(),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Create", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("create", database.CommentsCollection)()

	now := time.Now().UTC()
	if comment.ID.IsZero() {
		comment.ID = bson.NewObjectID()
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, comment); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"comment_id": comment.ID.Hex()})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Comment, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByID", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", database.CommentsCollection)()

	var comment models.Comment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByIDs returns the comments for the given reference list in the list's
// order. References that resolve to no document are skipped, so a dangling
// reference degrades to a missing entry rather than an error.
func (r *commentRepository) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Comment, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByIDs", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("get_by_ids", database.CommentsCollection)()

	if len(ids) == 0 {
		return []*models.Comment{}, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.log.LogError(ctx, err, "get_by_ids")
		return nil, err
	}
	defer cursor.Close(ctx)

	var fetched []*models.Comment
	if err := cursor.All(ctx, &fetched); err != nil {
		return nil, err
	}

	byID := make(map[bson.ObjectID]*models.Comment, len(fetched))
	for _, c := range fetched {
		byID[c.ID] = c
	}

	ordered := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Update", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("update", database.CommentsCollection)()

	comment.UpdatedAt = time.Now().UTC()
	result, err := r.col.ReplaceOne(ctx, bson.M{"_id": comment.ID}, comment)
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"comment_id": comment.ID.Hex()})
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Delete", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("delete", database.CommentsCollection)()

	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": id.Hex()})
	return nil
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "DeleteByIDs", database.CommentsCollection)
	defer span.End()
	defer r.metrics.TrackQuery("delete_by_ids", database.CommentsCollection)()

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
