package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wanderlust/internal/config"
	"wanderlust/internal/featureflags"
	"wanderlust/internal/geocode"
	"wanderlust/internal/imaging"
	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type campRepoStub struct {
	createFn      func(ctx context.Context, campground *models.Campground) error
	getByIDFn     func(ctx context.Context, id bson.ObjectID) (*models.Campground, error)
	getBySlugFn   func(ctx context.Context, slug string) (*models.Campground, error)
	listFn        func(ctx context.Context, limit, offset int) ([]*models.Campground, error)
	countFn       func(ctx context.Context) (int64, error)
	searchFn      func(ctx context.Context, query string, limit, offset int) ([]*models.Campground, error)
	countSearchFn func(ctx context.Context, query string) (int64, error)
	saveFn        func(ctx context.Context, campground *models.Campground) error
	deleteFn      func(ctx context.Context, id bson.ObjectID) error
	slugExistsFn  func(ctx context.Context, slug string) (bool, error)
}

func (s *campRepoStub) Create(ctx context.Context, campground *models.Campground) error {
	return s.createFn(ctx, campground)
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
func (s *campRepoStub) Count(ctx context.Context) (int64, error) { return s.countFn(ctx) }
func (s *campRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Campground, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *campRepoStub) CountSearch(ctx context.Context, query string) (int64, error) {
	return s.countSearchFn(ctx, query)
}
func (s *campRepoStub) Save(ctx context.Context, campground *models.Campground) error {
	return s.saveFn(ctx, campground)
}
func (s *campRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *campRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.slugExistsFn(ctx, slug)
}

type commentRepoStub struct {
	createFn      func(ctx context.Context, comment *models.Comment) error
	getByIDFn     func(ctx context.Context, id bson.ObjectID) (*models.Comment, error)
	getByIDsFn    func(ctx context.Context, ids []bson.ObjectID) ([]*models.Comment, error)
	updateFn      func(ctx context.Context, comment *models.Comment) error
	deleteFn      func(ctx context.Context, id bson.ObjectID) error
	deleteByIDsFn func(ctx context.Context, ids []bson.ObjectID) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Comment, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	return s.deleteByIDsFn(ctx, ids)
}

type reviewRepoStub struct {
	createFn                   func(ctx context.Context, review *models.Review) error
	getByIDFn                  func(ctx context.Context, id bson.ObjectID) (*models.Review, error)
	getByCampgroundFn          func(ctx context.Context, campgroundID bson.ObjectID) ([]*models.Review, error)
	getByCampgroundAndAuthorFn func(ctx context.Context, campgroundID, authorID bson.ObjectID) (*models.Review, error)
	updateFn                   func(ctx context.Context, review *models.Review) error
	deleteFn                   func(ctx context.Context, id bson.ObjectID) error
	deleteByIDsFn              func(ctx context.Context, ids []bson.ObjectID) (int64, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	return s.createFn(ctx, review)
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
func (s *reviewRepoStub) Update(ctx context.Context, review *models.Review) error {
	return s.updateFn(ctx, review)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *reviewRepoStub) DeleteByIDs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	return s.deleteByIDsFn(ctx, ids)
}

type userRepoStub struct {
	createFn        func(ctx context.Context, user *models.User) error
	getByIDFn       func(ctx context.Context, id bson.ObjectID) (*models.User, error)
	getByIDsFn      func(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
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

type geocoderStub struct {
	geocodeFn func(ctx context.Context, address string) ([]geocode.Result, error)
}

func (s *geocoderStub) Geocode(ctx context.Context, address string) ([]geocode.Result, error) {
	return s.geocodeFn(ctx, address)
}

type uploaderStub struct {
	uploadFn  func(ctx context.Context, filename string, data []byte) (*imaging.UploadResult, error)
	destroyFn func(ctx context.Context, publicID string) error
}

func (s *uploaderStub) Upload(ctx context.Context, filename string, data []byte) (*imaging.UploadResult, error) {
	return s.uploadFn(ctx, filename, data)
}
func (s *uploaderStub) Destroy(ctx context.Context, publicID string) error {
	return s.destroyFn(ctx, publicID)
}

func noopCampRepo() *campRepoStub {
	return &campRepoStub{
		createFn:      func(context.Context, *models.Campground) error { return nil },
		getByIDFn:     func(context.Context, bson.ObjectID) (*models.Campground, error) { return nil, mongo.ErrNoDocuments },
		getBySlugFn:   func(context.Context, string) (*models.Campground, error) { return nil, mongo.ErrNoDocuments },
		listFn:        func(context.Context, int, int) ([]*models.Campground, error) { return nil, nil },
		countFn:       func(context.Context) (int64, error) { return 0, nil },
		searchFn:      func(context.Context, string, int, int) ([]*models.Campground, error) { return nil, nil },
		countSearchFn: func(context.Context, string) (int64, error) { return 0, nil },
		saveFn:        func(context.Context, *models.Campground) error { return nil },
		deleteFn:      func(context.Context, bson.ObjectID) error { return nil },
		slugExistsFn:  func(context.Context, string) (bool, error) { return false, nil },
	}
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(context.Context, *models.Comment) error { return nil },
		getByIDFn:     func(context.Context, bson.ObjectID) (*models.Comment, error) { return nil, mongo.ErrNoDocuments },
		getByIDsFn:    func(context.Context, []bson.ObjectID) ([]*models.Comment, error) { return nil, nil },
		updateFn:      func(context.Context, *models.Comment) error { return nil },
		deleteFn:      func(context.Context, bson.ObjectID) error { return nil },
		deleteByIDsFn: func(context.Context, []bson.ObjectID) (int64, error) { return 0, nil },
	}
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn:          func(context.Context, *models.Review) error { return nil },
		getByIDFn:         func(context.Context, bson.ObjectID) (*models.Review, error) { return nil, mongo.ErrNoDocuments },
		getByCampgroundFn: func(context.Context, bson.ObjectID) ([]*models.Review, error) { return nil, nil },
		getByCampgroundAndAuthorFn: func(context.Context, bson.ObjectID, bson.ObjectID) (*models.Review, error) {
			return nil, mongo.ErrNoDocuments
		},
		updateFn:      func(context.Context, *models.Review) error { return nil },
		deleteFn:      func(context.Context, bson.ObjectID) error { return nil },
		deleteByIDsFn: func(context.Context, []bson.ObjectID) (int64, error) { return 0, nil },
	}
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(context.Context, *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id bson.ObjectID) (*models.User, error) {
			return &models.User{ID: id, Username: "camper"}, nil
		},
		getByIDsFn:      func(context.Context, []bson.ObjectID) ([]*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, mongo.ErrNoDocuments },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, mongo.ErrNoDocuments },
	}
}

func noopGeocoder() *geocoderStub {
	return &geocoderStub{
		geocodeFn: func(_ context.Context, address string) ([]geocode.Result, error) {
			return []geocode.Result{{Latitude: 44.43, Longitude: -110.59, FormattedAddress: address + ", USA"}}, nil
		},
	}
}

func noopUploader() *uploaderStub {
	return &uploaderStub{
		uploadFn: func(context.Context, string, []byte) (*imaging.UploadResult, error) {
			return &imaging.UploadResult{URL: "https://img.example/hosted.jpg", PublicID: "hosted"}, nil
		},
		destroyFn: func(context.Context, string) error { return nil },
	}
}

type serverStubs struct {
	camp     *campRepoStub
	comment  *commentRepoStub
	review   *reviewRepoStub
	user     *userRepoStub
	geocoder *geocoderStub
	uploader *uploaderStub
}

func newTestServer(t *testing.T, flags string) (*Server, *serverStubs) {
	t.Helper()

	stubs := &serverStubs{
		camp:     noopCampRepo(),
		comment:  noopCommentRepo(),
		review:   noopReviewRepo(),
		user:     noopUserRepo(),
		geocoder: noopGeocoder(),
		uploader: noopUploader(),
	}

	s := &Server{
		config:       &config.Config{JWTSecret: "test-secret-test-secret-test-1234", Port: "0"},
		userRepo:     stubs.user,
		campRepo:     stubs.camp,
		commentRepo:  stubs.comment,
		reviewRepo:   stubs.review,
		featureFlags: featureflags.NewManager(flags),
	}
	s.userService = service.NewUserService(stubs.user)
	s.campgroundService = service.NewCampgroundService(
		stubs.camp, stubs.comment, stubs.review, stubs.user,
		stubs.geocoder, stubs.uploader, s.isAdminByUserID)
	s.commentService = service.NewCommentService(stubs.comment, stubs.camp, stubs.user, s.isAdminByUserID)
	s.reviewService = service.NewReviewService(stubs.review, stubs.camp, stubs.user, s.featureFlags, s.isAdminByUserID)

	return s, stubs
}

// newTestApp returns a Fiber app that injects userID into locals the way
// the auth middleware would, for handlers tested without real tokens.
func newTestApp(userID string) *fiber.App {
	app := fiber.New()
	if userID != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("userID", userID)
			return c.Next()
		})
	}
	return app
}

func getRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func fixtureCampground(owner bson.ObjectID) *models.Campground {
	return &models.Campground{
		ID:          bson.NewObjectID(),
		Name:        "Granite Pass",
		Slug:        "granite-pass",
		Price:       25,
		Image:       "https://img.example/granite.jpg",
		Description: "Alpine views",
		Location:    "Yosemite Valley, CA, USA",
		Author:      models.Author{ID: owner, Username: "trailhead_tom"},
		Comments:    []bson.ObjectID{},
		Reviews:     []bson.ObjectID{},
		Likes:       []bson.ObjectID{},
	}
}
