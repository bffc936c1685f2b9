// Package service contains the business logic orchestrating repositories
// and outbound adapters.
package service

import (
	"context"
	"math"

	"wanderlust/internal/geocode"
	"wanderlust/internal/imaging"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"
	"wanderlust/internal/repository"
	"wanderlust/internal/slugify"
	"wanderlust/internal/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PageSize is the fixed number of campgrounds per listing page.
const PageSize = 8

const (
	maxDescriptionLen = 10000
	maxLocationLen    = 280
)

type CampgroundService struct {
	campRepo    repository.CampgroundRepository
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	geocoder    geocode.Geocoder
	uploader    imaging.Uploader
	isAdmin     func(ctx context.Context, userID bson.ObjectID) (bool, error)
}

func NewCampgroundService(
	campRepo repository.CampgroundRepository,
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	geocoder geocode.Geocoder,
	uploader imaging.Uploader,
	isAdmin func(ctx context.Context, userID bson.ObjectID) (bool, error),
) *CampgroundService {
	return &CampgroundService{
		campRepo:    campRepo,
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		geocoder:    geocoder,
		uploader:    uploader,
		isAdmin:     isAdmin,
	}
}

type ListCampgroundsInput struct {
	Page   int
	Search string
}

// CampgroundPage is one page of listing results.
type CampgroundPage struct {
	Campgrounds []*models.Campground `json:"campgrounds"`
	Page        int                  `json:"page"`
	TotalPages  int                  `json:"total_pages"`
	Total       int64                `json:"total"`
	Search      string               `json:"search,omitempty"`
	NoMatch     bool                 `json:"no_match"`
}

// List returns one page of campgrounds, optionally filtered by a literal,
// case-insensitive name search. Pages past the end yield an empty item set.
func (s *CampgroundService) List(ctx context.Context, in ListCampgroundsInput) (*CampgroundPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	var (
		items []*models.Campground
		total int64
		err   error
	)
	if in.Search != "" {
		if items, err = s.campRepo.Search(ctx, in.Search, PageSize, offset); err != nil {
			return nil, err
		}
		if total, err = s.campRepo.CountSearch(ctx, in.Search); err != nil {
			return nil, err
		}
	} else {
		if items, err = s.campRepo.List(ctx, PageSize, offset); err != nil {
			return nil, err
		}
		if total, err = s.campRepo.Count(ctx); err != nil {
			return nil, err
		}
	}

	return &CampgroundPage{
		Campgrounds: items,
		Page:        page,
		TotalPages:  int(math.Ceil(float64(total) / float64(PageSize))),
		Total:       total,
		Search:      in.Search,
		NoMatch:     in.Search != "" && total == 0,
	}, nil
}

type CreateCampgroundInput struct {
	UserID      bson.ObjectID
	Name        string
	Price       float64
	Description string
	Location    string

	// Either a direct image URL or an uploaded file.
	ImageURL      string
	ImageFilename string
	ImageData     []byte
}

// Create runs the full creation pipeline: validate, upload the image if a
// file was attached, geocode the location, derive a unique slug, persist.
// A geocoding failure aborts before persistence; an image uploaded earlier
// in the pipeline is not rolled back on that path.
func (s *CampgroundService) Create(ctx context.Context, in CreateCampgroundInput) (*models.Campground, error) {
	if err := validation.ValidateCampgroundName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePrice(in.Price); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("description", in.Description, maxDescriptionLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("location", in.Location, maxLocationLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.ImageData) > 0 {
		if !imaging.AllowedExtension(in.ImageFilename) {
			return nil, models.NewValidationError("Image must be a jpg, jpeg, png or gif file")
		}
	} else if in.ImageURL == "" {
		return nil, models.NewValidationError("An image URL or upload is required")
	}

	author, err := s.authorFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	imageURL := in.ImageURL
	imageID := ""
	if len(in.ImageData) > 0 {
		uploaded, err := s.uploader.Upload(ctx, in.ImageFilename, imaging.Downscale(in.ImageData, imaging.MaxUploadWidth))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		imageURL = uploaded.URL
		imageID = uploaded.PublicID
	}

	candidates, err := s.geocoder.Geocode(ctx, in.Location)
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewValidationError("Invalid address")
	}
	if len(candidates) == 0 {
		return nil, models.NewValidationError("Invalid address")
	}
	place := candidates[0]

	slug, err := slugify.MakeUnique(ctx, in.Name, s.campRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	campground := &models.Campground{
		Name:        in.Name,
		Slug:        slug,
		Price:       in.Price,
		Image:       imageURL,
		ImageID:     imageID,
		Description: in.Description,
		Location:    place.FormattedAddress,
		Lat:         place.Latitude,
		Lng:         place.Longitude,
		Author:      author,
	}
	if err := s.campRepo.Create(ctx, campground); err != nil {
		return nil, err
	}
	return campground, nil
}

// CampgroundDetail is the populated view of one campground.
type CampgroundDetail struct {
	Campground *models.Campground `json:"campground"`
	Comments   []*models.Comment  `json:"comments"`
	Reviews    []*models.Review   `json:"reviews"`
	Likers     []models.Author    `json:"likers"`
}

// Detail resolves a campground by slug and populates its comments (in
// reference order), liking users, and reviews newest first.
func (s *CampgroundService) Detail(ctx context.Context, slug string) (*CampgroundDetail, error) {
	campground, err := s.campRepo.GetBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("campground", slug)
		}
		return nil, err
	}

	comments, err := s.commentRepo.GetByIDs(ctx, campground.Comments)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.GetByCampground(ctx, campground.ID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, campground.Likes)
	if err != nil {
		return nil, err
	}
	likers := make([]models.Author, 0, len(users))
	for _, u := range users {
		likers = append(likers, models.Author{ID: u.ID, Username: u.Username})
	}

	return &CampgroundDetail{
		Campground: campground,
		Comments:   comments,
		Reviews:    reviews,
		Likers:     likers,
	}, nil
}

type ToggleLikeInput struct {
	UserID bson.ObjectID
	Slug   string
}

// ToggleLike flips the actor's membership in the campground's like set and
// reports the resulting state.
func (s *CampgroundService) ToggleLike(ctx context.Context, in ToggleLikeInput) (bool, error) {
	campground, err := s.campRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, models.NewNotFoundError("campground", in.Slug)
		}
		return false, err
	}

	liked := campground.ToggleLike(in.UserID)
	if err := s.campRepo.Save(ctx, campground); err != nil {
		return false, err
	}
	return liked, nil
}

type UpdateCampgroundInput struct {
	UserID      bson.ObjectID
	Slug        string
	Name        string
	Price       float64
	Description string
	Location    string

	// Optional replacement image.
	ImageURL      string
	ImageFilename string
	ImageData     []byte
}

// Update edits a campground. Only the author or a privileged actor may
// update. The location is re-geocoded on every update, and the rating
// aggregate is never taken from input. The slug stays stable across
// renames so existing URLs keep resolving.
func (s *CampgroundService) Update(ctx context.Context, in UpdateCampgroundInput) (*models.Campground, error) {
	campground, err := s.campRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("campground", in.Slug)
		}
		return nil, err
	}

	if err := s.authorize(ctx, campground.Author.ID, in.UserID, "You can only edit your own campgrounds"); err != nil {
		return nil, err
	}

	if err := validation.ValidateCampgroundName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePrice(in.Price); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("description", in.Description, maxDescriptionLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("location", in.Location, maxLocationLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.ImageData) > 0 && !imaging.AllowedExtension(in.ImageFilename) {
		return nil, models.NewValidationError("Image must be a jpg, jpeg, png or gif file")
	}

	if len(in.ImageData) > 0 {
		uploaded, err := s.uploader.Upload(ctx, in.ImageFilename, imaging.Downscale(in.ImageData, imaging.MaxUploadWidth))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if campground.ImageID != "" {
			// Best effort; a stale hosted asset is preferable to a failed edit.
			_ = s.uploader.Destroy(ctx, campground.ImageID)
		}
		campground.Image = uploaded.URL
		campground.ImageID = uploaded.PublicID
	} else if in.ImageURL != "" {
		campground.Image = in.ImageURL
		campground.ImageID = ""
	}

	candidates, err := s.geocoder.Geocode(ctx, in.Location)
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewValidationError("Invalid address")
	}
	if len(candidates) == 0 {
		return nil, models.NewValidationError("Invalid address")
	}
	place := candidates[0]

	campground.Name = in.Name
	campground.Price = in.Price
	campground.Description = in.Description
	campground.Location = place.FormattedAddress
	campground.Lat = place.Latitude
	campground.Lng = place.Longitude

	if err := s.campRepo.Save(ctx, campground); err != nil {
		return nil, err
	}
	return campground, nil
}

type DeleteCampgroundInput struct {
	UserID bson.ObjectID
	Slug   string
}

// Delete removes a campground and everything it owns. Comments go first,
// then reviews, then the campground itself; if either cascade step fails
// the campground record stays intact rather than being left with orphaned
// references.
func (s *CampgroundService) Delete(ctx context.Context, in DeleteCampgroundInput) error {
	campground, err := s.campRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundError("campground", in.Slug)
		}
		return err
	}

	if err := s.authorize(ctx, campground.Author.ID, in.UserID, "You can only delete your own campgrounds"); err != nil {
		return err
	}

	if _, err := s.commentRepo.DeleteByIDs(ctx, campground.Comments); err != nil {
		observability.CascadeDeletes.WithLabelValues("error").Inc()
		return models.NewInternalError(err)
	}
	if _, err := s.reviewRepo.DeleteByIDs(ctx, campground.Reviews); err != nil {
		observability.CascadeDeletes.WithLabelValues("error").Inc()
		return models.NewInternalError(err)
	}
	if err := s.campRepo.Delete(ctx, campground.ID); err != nil {
		observability.CascadeDeletes.WithLabelValues("error").Inc()
		return err
	}
	observability.CascadeDeletes.WithLabelValues("ok").Inc()

	if campground.ImageID != "" {
		_ = s.uploader.Destroy(ctx, campground.ImageID)
	}
	return nil
}

// authorize fails closed: a non-owner is rejected unless the admin check
// positively confirms privilege.
func (s *CampgroundService) authorize(ctx context.Context, ownerID, actorID bson.ObjectID, message string) error {
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

func (s *CampgroundService) authorFor(ctx context.Context, userID bson.ObjectID) (models.Author, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Author{}, models.NewUnauthorizedError("Unknown user")
		}
		return models.Author{}, err
	}
	return models.Author{ID: user.ID, Username: user.Username}, nil
}
