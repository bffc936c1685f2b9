package service

import (
	"context"
	"testing"

	"wanderlust/internal/featureflags"
	"wanderlust/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func reviewsOn() *featureflags.Manager {
	return featureflags.NewManager("reviews=on")
}

func TestReviewService_CreateReview_RatingBounds(t *testing.T) {
	t.Parallel()

	svc := NewReviewService(noopReviewRepo(), noopCampRepo(), noopUserRepo(), reviewsOn(), neverAdmin)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.CreateReview(context.Background(), CreateReviewInput{
			UserID: bson.NewObjectID(),
			Slug:   "granite-pass",
			Rating: rating,
			Text:   "nice place",
		})
		assertValidationError(t, err)
	}
}

func TestReviewService_CreateReview_OnePerUser(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()
	reviewRepo := noopReviewRepo()
	reviewRepo.getByCampgroundAndAuthorFn = func(_ context.Context, _, authorID bson.ObjectID) (*models.Review, error) {
		if authorID == userID {
			return &models.Review{Author: models.Author{ID: authorID}}, nil
		}
		return nil, mongo.ErrNoDocuments
	}

	svc := NewReviewService(reviewRepo, noopCampRepo(), noopUserRepo(), reviewsOn(), neverAdmin)

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		UserID: userID,
		Slug:   "granite-pass",
		Rating: 4,
		Text:   "second attempt",
	})
	assertValidationError(t, err)
}

func TestReviewService_CreateReview_RecomputesAverage(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()
	campground := &models.Campground{ID: bson.NewObjectID(), Slug: "granite-pass"}
	campRepo := noopCampRepo()
	campRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Campground, error) {
		return campground, nil
	}
	var saved *models.Campground
	campRepo.saveFn = func(_ context.Context, c *models.Campground) error {
		saved = c
		return nil
	}

	reviewRepo := noopReviewRepo()
	reviewRepo.createFn = func(_ context.Context, r *models.Review) error {
		r.ID = bson.NewObjectID()
		return nil
	}
	reviewRepo.getByCampgroundFn = func(_ context.Context, _ bson.ObjectID) ([]*models.Review, error) {
		return []*models.Review{{Rating: 5}, {Rating: 2}}, nil
	}

	svc := NewReviewService(reviewRepo, campRepo, noopUserRepo(), reviewsOn(), neverAdmin)

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		UserID: userID,
		Slug:   "granite-pass",
		Rating: 5,
		Text:   "stellar views",
	})
	require.NoError(t, err)
	assert.Equal(t, campground.ID, review.Campground, "review carries a back-reference to its parent")

	require.NotNil(t, saved)
	assert.Equal(t, 3.5, saved.Rating)
	assert.Contains(t, saved.Reviews, review.ID)
}

func TestReviewService_UpdateReview_OwnerOnlyAndRecompute(t *testing.T) {
	t.Parallel()

	owner := bson.NewObjectID()
	campgroundID := bson.NewObjectID()
	reviewRepo := noopReviewRepo()
	reviewRepo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Review, error) {
		return &models.Review{ID: id, Author: models.Author{ID: owner}, Campground: campgroundID, Rating: 2}, nil
	}
	reviewRepo.getByCampgroundFn = func(_ context.Context, _ bson.ObjectID) ([]*models.Review, error) {
		return []*models.Review{{Rating: 4}}, nil
	}

	campRepo := noopCampRepo()
	campRepo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Campground, error) {
		assert.Equal(t, campgroundID, id)
		return &models.Campground{ID: id}, nil
	}
	var saved *models.Campground
	campRepo.saveFn = func(_ context.Context, c *models.Campground) error {
		saved = c
		return nil
	}

	svc := NewReviewService(reviewRepo, campRepo, noopUserRepo(), reviewsOn(), neverAdmin)

	_, err := svc.UpdateReview(context.Background(), UpdateReviewInput{
		UserID:   bson.NewObjectID(),
		ReviewID: bson.NewObjectID(),
		Rating:   4,
		Text:     "changed my mind",
	})
	assertUnauthorizedError(t, err)

	got, err := svc.UpdateReview(context.Background(), UpdateReviewInput{
		UserID:   owner,
		ReviewID: bson.NewObjectID(),
		Rating:   4,
		Text:     "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	require.NotNil(t, saved)
	assert.Equal(t, 4.0, saved.Rating)
}

func TestReviewService_DeleteReview_RecomputesAndToleratesMissingParent(t *testing.T) {
	t.Parallel()

	owner := bson.NewObjectID()
	campgroundID := bson.NewObjectID()
	reviewRepo := noopReviewRepo()
	reviewRepo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Review, error) {
		return &models.Review{ID: id, Author: models.Author{ID: owner}, Campground: campgroundID}, nil
	}
	reviewRepo.getByCampgroundFn = func(_ context.Context, _ bson.ObjectID) ([]*models.Review, error) {
		return []*models.Review{}, nil
	}

	t.Run("rating resets to zero with no reviews left", func(t *testing.T) {
		campRepo := noopCampRepo()
		campRepo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Campground, error) {
			return &models.Campground{ID: id, Rating: 4.5}, nil
		}
		var saved *models.Campground
		campRepo.saveFn = func(_ context.Context, c *models.Campground) error {
			saved = c
			return nil
		}

		svc := NewReviewService(reviewRepo, campRepo, noopUserRepo(), reviewsOn(), neverAdmin)
		_, err := svc.DeleteReview(context.Background(), DeleteReviewInput{UserID: owner, ReviewID: bson.NewObjectID()})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Zero(t, saved.Rating)
	})

	t.Run("parent already deleted", func(t *testing.T) {
		campRepo := noopCampRepo()
		campRepo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Campground, error) {
			return nil, mongo.ErrNoDocuments
		}

		svc := NewReviewService(reviewRepo, campRepo, noopUserRepo(), reviewsOn(), neverAdmin)
		_, err := svc.DeleteReview(context.Background(), DeleteReviewInput{UserID: owner, ReviewID: bson.NewObjectID()})
		require.NoError(t, err)
	})
}

func TestReviewService_DeleteReview_LeavesDanglingParentReference(t *testing.T) {
	t.Parallel()

	owner := bson.NewObjectID()
	reviewID := bson.NewObjectID()
	campground := &models.Campground{
		ID:      bson.NewObjectID(),
		Reviews: []bson.ObjectID{reviewID},
	}

	reviewRepo := noopReviewRepo()
	reviewRepo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Review, error) {
		return &models.Review{ID: id, Author: models.Author{ID: owner}, Campground: campground.ID}, nil
	}
	reviewRepo.getByCampgroundFn = func(_ context.Context, _ bson.ObjectID) ([]*models.Review, error) {
		return []*models.Review{}, nil
	}
	campRepo := noopCampRepo()
	campRepo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Campground, error) {
		return campground, nil
	}

	svc := NewReviewService(reviewRepo, campRepo, noopUserRepo(), reviewsOn(), neverAdmin)

	_, err := svc.DeleteReview(context.Background(), DeleteReviewInput{UserID: owner, ReviewID: reviewID})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{reviewID}, campground.Reviews, "the parent keeps the dangling reference")
}

func TestReviewService_Enabled(t *testing.T) {
	t.Parallel()

	on := NewReviewService(noopReviewRepo(), noopCampRepo(), noopUserRepo(), featureflags.NewManager("reviews=on"), neverAdmin)
	off := NewReviewService(noopReviewRepo(), noopCampRepo(), noopUserRepo(), featureflags.NewManager("reviews=off"), neverAdmin)

	userID := bson.NewObjectID()
	assert.True(t, on.Enabled(userID))
	assert.False(t, off.Enabled(userID))
}
