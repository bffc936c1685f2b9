package service

import (
	"context"

	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	campRepo    repository.CampgroundRepository
	userRepo    repository.UserRepository
	isAdmin     func(ctx context.Context, userID bson.ObjectID) (bool, error)
}

type CreateCommentInput struct {
	UserID bson.ObjectID
	Slug   string
	Text   string
}

type UpdateCommentInput struct {
	UserID    bson.ObjectID
	CommentID bson.ObjectID
	Text      string
}

type DeleteCommentInput struct {
	UserID    bson.ObjectID
	CommentID bson.ObjectID
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	campRepo repository.CampgroundRepository,
	userRepo repository.UserRepository,
	isAdmin func(ctx context.Context, userID bson.ObjectID) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		campRepo:    campRepo,
		userRepo:    userRepo,
		isAdmin:     isAdmin,
	}
}

// CreateComment attaches a new comment to the campground resolved by slug,
// appending its reference to the parent and re-saving the parent document.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	campground, err := s.campRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("campground", in.Slug)
		}
		return nil, err
	}

	if err := validation.ValidateText("comment", in.Text, maxCommentLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, err
	}

	comment := &models.Comment{
		Text:   in.Text,
		Author: models.Author{ID: user.ID, Username: user.Username},
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	campground.Comments = append(campground.Comments, comment.ID)
	if err := s.campRepo.Save(ctx, campground); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComment resolves a single comment, for edit forms.
func (s *CommentService) GetComment(ctx context.Context, id bson.ObjectID) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("comment", id.Hex())
		}
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("comment", in.CommentID.Hex())
		}
		return nil, err
	}

	if err := s.authorize(ctx, comment.Author.ID, in.UserID, "You can only edit your own comments"); err != nil {
		return nil, err
	}
	if err := validation.ValidateText("comment", in.Text, maxCommentLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Text = in.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes the comment record only. The parent campground's
// reference list keeps the now-dangling entry; the reverse cleanup happens
// only when the campground itself is deleted.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("comment", in.CommentID.Hex())
		}
		return nil, err
	}

	if err := s.authorize(ctx, comment.Author.ID, in.UserID, "You can only delete your own comments"); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) authorize(ctx context.Context, ownerID, actorID bson.ObjectID, message string) error {
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
