package service

import (
	"context"
	"fmt"

	"wanderlust/internal/featureflags"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const maxReviewLen = 5000

type ReviewService struct {
	reviewRepo repository.ReviewRepository
	campRepo   repository.CampgroundRepository
	userRepo   repository.UserRepository
	flags      *featureflags.Manager
	isAdmin    func(ctx context.Context, userID bson.ObjectID) (bool, error)
}

type CreateReviewInput struct {
	UserID bson.ObjectID
	Slug   string
	Rating int
	Text   string
}

type UpdateReviewInput struct {
	UserID   bson.ObjectID
	ReviewID bson.ObjectID
	Rating   int
	Text     string
}

type DeleteReviewInput struct {
	UserID   bson.ObjectID
	ReviewID bson.ObjectID
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	campRepo repository.CampgroundRepository,
	userRepo repository.UserRepository,
	flags *featureflags.Manager,
	isAdmin func(ctx context.Context, userID bson.ObjectID) (bool, error),
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		campRepo:   campRepo,
		userRepo:   userRepo,
		flags:      flags,
		isAdmin:    isAdmin,
	}
}

// Enabled reports whether the review feature is on for the given user.
func (s *ReviewService) Enabled(userID bson.ObjectID) bool {
	return s.flags.Enabled(featureflags.FlagReviews, userID.Hex())
}

func (s *ReviewService) validateInput(rating int, text string) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return models.NewValidationError(fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	if err := validation.ValidateText("review", text, maxReviewLen); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// CreateReview adds a review to the campground resolved by slug. Each user
// may hold at most one review per campground. The campground's rating
// aggregate is recomputed afterwards.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	campground, err := s.campRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("campground", in.Slug)
		}
		return nil, err
	}

	if err := s.validateInput(in.Rating, in.Text); err != nil {
		return nil, err
	}

	if _, err := s.reviewRepo.GetByCampgroundAndAuthor(ctx, campground.ID, in.UserID); err == nil {
		return nil, models.NewValidationError("You have already reviewed this campground")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, err
	}

	review := &models.Review{
		Rating:     in.Rating,
		Text:       in.Text,
		Author:     models.Author{ID: user.ID, Username: user.Username},
		Campground: campground.ID,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	campground.Reviews = append(campground.Reviews, review.ID)
	if err := s.saveWithRecomputedRating(ctx, campground); err != nil {
		return nil, err
	}
	return review, nil
}

// GetReview resolves a single review, for edit forms.
func (s *ReviewService) GetReview(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("review", id.Hex())
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("review", in.ReviewID.Hex())
		}
		return nil, err
	}

	if err := s.authorize(ctx, review.Author.ID, in.UserID, "You can only edit your own reviews"); err != nil {
		return nil, err
	}
	if err := s.validateInput(in.Rating, in.Text); err != nil {
		return nil, err
	}

	review.Rating = in.Rating
	review.Text = in.Text
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, review.Campground); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes the review record and refreshes the parent's rating
// aggregate. The parent's reference list keeps the dangling entry, same as
// comment deletion.
func (s *ReviewService) DeleteReview(ctx context.Context, in DeleteReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("review", in.ReviewID.Hex())
		}
		return nil, err
	}

	if err := s.authorize(ctx, review.Author.ID, in.UserID, "You can only delete your own reviews"); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Delete(ctx, in.ReviewID); err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, review.Campground); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) recomputeRating(ctx context.Context, campgroundID bson.ObjectID) error {
	campground, err := s.campRepo.GetByID(ctx, campgroundID)
	if err != nil {
		if repository.IsNotFound(err) {
			// The parent is already gone; nothing to refresh.
			return nil
		}
		return err
	}
	return s.saveWithRecomputedRating(ctx, campground)
}

// saveWithRecomputedRating recalculates the average from the reviews that
// currently exist, so dangling references never skew the aggregate.
func (s *ReviewService) saveWithRecomputedRating(ctx context.Context, campground *models.Campground) error {
	reviews, err := s.reviewRepo.GetByCampground(ctx, campground.ID)
	if err != nil {
		return err
	}

	if len(reviews) == 0 {
		campground.Rating = 0
	} else {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		campground.Rating = float64(sum) / float64(len(reviews))
	}
	return s.campRepo.Save(ctx, campground)
}

func (s *ReviewService) authorize(ctx context.Context, ownerID, actorID bson.ObjectID, message string) error {
	if ownerID == actorID {
		return nil
	}
	if s.isAdmin == nil {
		return models.NewUnauthorizedError(message)
	}
	admin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return models.NewUnauthorizedError(message)
	}
	if !admin {
		return models.NewUnauthorizedError(message)
	}
	return nil
}
