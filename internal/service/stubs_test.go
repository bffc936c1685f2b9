package service

import (
	"context"
	"errors"
	"testing"

	"wanderlust/internal/geocode"
	"wanderlust/internal/imaging"
	"wanderlust/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// campRepoStub is a stub for repository.CampgroundRepository.
type campRepoStub struct {
	createFn      func(context.Context, *models.Campground) error
	getByIDFn     func(context.Context, bson.ObjectID) (*models.Campground, error)
	getBySlugFn   func(context.Context, string) (*models.Campground, error)
	listFn        func(context.Context, int, int) ([]*models.Campground, error)
	countFn       func(context.Context) (int64, error)
	searchFn      func(context.Context, string, int, int) ([]*models.Campground, error)
	countSearchFn func(context.Context, string) (int64, error)
	saveFn        func(context.Context, *models.Campground) error
	deleteFn      func(context.Context, bson.ObjectID) error
	slugExistsFn  func(context.Context, string) (bool, error)
}

func (s *campRepoStub) Create(ctx context.Context, c *models.Campground) error {
	return s.createFn(ctx, c)
}
func (s *campRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.Campground, error) {
	return s.getByIDFn(ctx, id)
}
func (s *campRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Campground, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *campRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Campground, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *campRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *campRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Campground, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *campRepoStub) CountSearch(ctx context.Context, query string) (int64, error) {
	return s.countSearchFn(ctx, query)
}
func (s *campRepoStub) Save(ctx context.Context, c *models.Campground) error {
	return s.saveFn(ctx, c)
}
func (s *campRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *campRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.slugExistsFn(ctx, slug)
}

func noopCampRepo() *campRepoStub {
	return &campRepoStub{
		createFn:  func(_ context.Context, _ *models.Campground) error { return nil },
		getByIDFn: func(_ context.Context, _ bson.ObjectID) (*models.Campground, error) { return &models.Campground{}, nil },
		getBySlugFn: func(_ context.Context, _ string) (*models.Campground, error) {
			return &models.Campground{}, nil
		},
		listFn:        func(_ context.Context, _, _ int) ([]*models.Campground, error) { return nil, nil },
		countFn:       func(_ context.Context) (int64, error) { return 0, nil },
		searchFn:      func(_ context.Context, _ string, _, _ int) ([]*models.Campground, error) { return nil, nil },
		countSearchFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
		saveFn:        func(_ context.Context, _ *models.Campground) error { return nil },
		deleteFn:      func(_ context.Context, _ bson.ObjectID) error { return nil },
		slugExistsFn:  func(_ context.Context, _ string) (bool, error) { return false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, bson.ObjectID) (*models.Comment, error)
	getByIDsFn    func(context.Context, []bson.ObjectID) ([]*models.Comment, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, bson.ObjectID) error
	deleteByIDsFn func(context.Context, []bson.ObjectID) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Comment, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	return s.deleteByIDsFn(ctx, ids)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, _ bson.ObjectID) (*models.Comment, error) { return &models.Comment{}, nil },
		getByIDsFn:    func(_ context.Context, _ []bson.ObjectID) ([]*models.Comment, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:      func(_ context.Context, _ bson.ObjectID) error { return nil },
		deleteByIDsFn: func(_ context.Context, _ []bson.ObjectID) (int64, error) { return 0, nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn                   func(context.Context, *models.Review) error
	getByIDFn                  func(context.Context, bson.ObjectID) (*models.Review, error)
	getByCampgroundFn          func(context.Context, bson.ObjectID) ([]*models.Review, error)
	getByCampgroundAndAuthorFn func(context.Context, bson.ObjectID, bson.ObjectID) (*models.Review, error)
	updateFn                   func(context.Context, *models.Review) error
	deleteFn                   func(context.Context, bson.ObjectID) error
	deleteByIDsFn              func(context.Context, []bson.ObjectID) (int64, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, r *models.Review) error {
	return s.createFn(ctx, r)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reviewRepoStub) GetByCampground(ctx context.Context, campgroundID bson.ObjectID) ([]*models.Review, error) {
	return s.getByCampgroundFn(ctx, campgroundID)
}
func (s *reviewRepoStub) GetByCampgroundAndAuthor(ctx context.Context, campgroundID, authorID bson.ObjectID) (*models.Review, error) {
	return s.getByCampgroundAndAuthorFn(ctx, campgroundID, authorID)
}
func (s *reviewRepoStub) Update(ctx context.Context, r *models.Review) error {
	return s.updateFn(ctx, r)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *reviewRepoStub) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	return s.deleteByIDsFn(ctx, ids)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn:          func(_ context.Context, _ *models.Review) error { return nil },
		getByIDFn:         func(_ context.Context, _ bson.ObjectID) (*models.Review, error) { return &models.Review{}, nil },
		getByCampgroundFn: func(_ context.Context, _ bson.ObjectID) ([]*models.Review, error) { return nil, nil },
		getByCampgroundAndAuthorFn: func(_ context.Context, _, _ bson.ObjectID) (*models.Review, error) {
			return nil, mongo.ErrNoDocuments
		},
		updateFn:      func(_ context.Context, _ *models.Review) error { return nil },
		deleteFn:      func(_ context.Context, _ bson.ObjectID) error { return nil },
		deleteByIDsFn: func(_ context.Context, _ []bson.ObjectID) (int64, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, bson.ObjectID) (*models.User, error)
	getByIDsFn      func(context.Context, []bson.ObjectID) ([]*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id bson.ObjectID) (*models.User, error) {
			return &models.User{ID: id, Username: "camper"}, nil
		},
		getByIDsFn:      func(_ context.Context, _ []bson.ObjectID) ([]*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, mongo.ErrNoDocuments },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, mongo.ErrNoDocuments },
	}
}

// geocoderStub is a stub for geocode.Geocoder.
type geocoderStub struct {
	geocodeFn func(context.Context, string) ([]geocode.Result, error)
}

func (s *geocoderStub) Geocode(ctx context.Context, address string) ([]geocode.Result, error) {
	return s.geocodeFn(ctx, address)
}

func noopGeocoder() *geocoderStub {
	return &geocoderStub{
		geocodeFn: func(_ context.Context, address string) ([]geocode.Result, error) {
			return []geocode.Result{{Latitude: 44.43, Longitude: -110.59, FormattedAddress: address + ", USA"}}, nil
		},
	}
}

// uploaderStub is a stub for imaging.Uploader.
type uploaderStub struct {
	uploadFn  func(context.Context, string, []byte) (*imaging.UploadResult, error)
	destroyFn func(context.Context, string) error
}

func (s *uploaderStub) Upload(ctx context.Context, filename string, data []byte) (*imaging.UploadResult, error) {
	return s.uploadFn(ctx, filename, data)
}
func (s *uploaderStub) Destroy(ctx context.Context, publicID string) error {
	return s.destroyFn(ctx, publicID)
}

func noopUploader() *uploaderStub {
	return &uploaderStub{
		uploadFn: func(_ context.Context, _ string, _ []byte) (*imaging.UploadResult, error) {
			return &imaging.UploadResult{URL: "https://img.example/hosted.jpg", PublicID: "hosted"}, nil
		},
		destroyFn: func(_ context.Context, _ string) error { return nil },
	}
}

func neverAdmin(_ context.Context, _ bson.ObjectID) (bool, error) { return false, nil }
func alwaysAdmin(_ context.Context, _ bson.ObjectID) (bool, error) { return true, nil }

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
