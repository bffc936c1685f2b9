package service

import (
	"context"

	"wanderlust/internal/models"
	"wanderlust/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("user", id.Hex())
		}
		return nil, err
	}
	return user, nil
}

// GetUserByHex resolves a user from a hex-encoded object ID, as carried in
// token claims.
func (s *UserService) GetUserByHex(ctx context.Context, hex string) (*models.User, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return nil, models.NewNotFoundError("user", hex)
	}
	return s.GetUserByID(ctx, id)
}

// IsAdmin is the privileged-actor predicate injected into the other
// services' ownership checks. A lookup failure reports non-admin so those
// checks fail closed.
func (s *UserService) IsAdmin(ctx context.Context, id bson.ObjectID) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
