// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/slugify"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

// SeedOptions control factory behavior.
type SeedOptions struct {
	// SkipBcrypt stores the plaintext password, for fast local seeding.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over the past N days.
	MaxDays int
}

// Factory builds domain entities and persists them through the repository
// layer so seeded data goes through the same write paths as the app.
type Factory struct {
	campRepo    repository.CampgroundRepository
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	opts        SeedOptions
	rand        *rand.Rand
}

// NewFactory creates a new Factory bound to the provided database.
func NewFactory(db *mongo.Database, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		campRepo:    repository.NewCampgroundRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		reviewRepo:  repository.NewReviewRepository(db),
		userRepo:    repository.NewUserRepository(db),
		opts:        opts,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	user.ID = bson.NewObjectID()
	user.CreatedAt = f.pastTime()
	user.UpdatedAt = user.CreatedAt
	if err := f.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCampground constructs and persists a sample campground owned by the
// given user.
func (f *Factory) CreateCampground(ctx context.Context, owner *models.User, overrides ...func(*models.Campground)) (*models.Campground, error) {
	name := fmt.Sprintf("%s %s", gofakeit.Adjective(), campsiteNoun(f.rand))
	campground := &models.Campground{
		Name:        name,
		Price:       float64(gofakeit.Number(10, 120)),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		Location:    fmt.Sprintf("%s, %s, USA", gofakeit.City(), gofakeit.StateAbr()),
		Lat:         gofakeit.Latitude(),
		Lng:         gofakeit.Longitude(),
		Author:      models.Author{ID: owner.ID, Username: owner.Username},
	}

	for _, override := range overrides {
		override(campground)
	}

	slug, err := slugify.MakeUnique(ctx, campground.Name, f.campRepo.SlugExists)
	if err != nil {
		return nil, err
	}
	campground.Slug = slug
	campground.CreatedAt = f.pastTime()
	campground.UpdatedAt = campground.CreatedAt

	if err := f.campRepo.Create(ctx, campground); err != nil {
		return nil, err
	}
	return campground, nil
}

// CreateComment attaches a comment to the campground and registers its
// reference on the parent.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, campground *models.Campground) (*models.Comment, error) {
	comment := &models.Comment{
		Text:   gofakeit.Sentence(f.rand.Intn(12) + 4),
		Author: models.Author{ID: author.ID, Username: author.Username},
	}
	if err := f.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	campground.Comments = append(campground.Comments, comment.ID)
	if err := f.campRepo.Save(ctx, campground); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReview attaches a rated review to the campground and refreshes the
// parent's rating aggregate.
func (f *Factory) CreateReview(ctx context.Context, author *models.User, campground *models.Campground) (*models.Review, error) {
	review := &models.Review{
		Rating:     f.rand.Intn(models.MaxRating-models.MinRating+1) + models.MinRating,
		Text:       gofakeit.Sentence(f.rand.Intn(16) + 6),
		Author:     models.Author{ID: author.ID, Username: author.Username},
		Campground: campground.ID,
	}
	if err := f.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	campground.Reviews = append(campground.Reviews, review.ID)
	reviews, err := f.reviewRepo.GetByCampground(ctx, campground.ID)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, r := range reviews {
		sum += float64(r.Rating)
	}
	campground.Rating = 0
	if len(reviews) > 0 {
		campground.Rating = sum / float64(len(reviews))
	}
	if err := f.campRepo.Save(ctx, campground); err != nil {
		return nil, err
	}
	return review, nil
}

// AddLike puts the user into the campground's like set if not present.
func (f *Factory) AddLike(ctx context.Context, user *models.User, campground *models.Campground) error {
	if campground.LikedBy(user.ID) {
		return nil
	}
	campground.ToggleLike(user.ID)
	return f.campRepo.Save(ctx, campground)
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rand.Intn(maxDays)
	hoursBack := f.rand.Intn(24)
	minsBack := f.rand.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

var campsiteNouns = []string{
	"Creek", "Hollow", "Ridge", "Meadow", "Pines", "Falls", "Basin",
	"Overlook", "Springs", "Canyon", "Grove", "Flats", "Summit", "Cove",
}

func campsiteNoun(r *rand.Rand) string {
	return campsiteNouns[r.Intn(len(campsiteNouns))]
}

// Seeder orchestrates bulk data creation.
type Seeder struct {
	db      *mongo.Database
	factory *Factory
}

// NewSeeder creates a Seeder for the given database.
func NewSeeder(db *mongo.Database, opts SeedOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll drops all application collections.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, name := range []string{"campgrounds", "comments", "reviews", "users"} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// Populate creates numUsers users and numCampgrounds campgrounds with a
// realistic spread of comments, reviews, and likes.
func (s *Seeder) Populate(ctx context.Context, numUsers, numCampgrounds int) error {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d users", len(users))

	r := s.factory.rand
	commentCount, reviewCount, likeCount := 0, 0, 0
	for i := 0; i < numCampgrounds; i++ {
		owner := users[r.Intn(len(users))]
		campground, err := s.factory.CreateCampground(ctx, owner)
		if err != nil {
			return fmt.Errorf("create campground: %w", err)
		}

		for j := 0; j < r.Intn(5); j++ {
			author := users[r.Intn(len(users))]
			if _, err := s.factory.CreateComment(ctx, author, campground); err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			commentCount++
		}

		// One review per user at most.
		for _, idx := range r.Perm(len(users))[:r.Intn(min(4, len(users)))] {
			if _, err := s.factory.CreateReview(ctx, users[idx], campground); err != nil {
				return fmt.Errorf("create review: %w", err)
			}
			reviewCount++
		}

		for _, idx := range r.Perm(len(users))[:r.Intn(len(users))] {
			if err := s.factory.AddLike(ctx, users[idx], campground); err != nil {
				return fmt.Errorf("add like: %w", err)
			}
			likeCount++
		}
	}
	log.Printf("created %d campgrounds, %d comments, %d reviews, %d likes",
		numCampgrounds, commentCount, reviewCount, likeCount)
	return nil
}
