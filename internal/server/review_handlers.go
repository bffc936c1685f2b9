package server

import (
	"strconv"

	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NewReviewForm handles GET /campgrounds/:slug/reviews/new
func (s *Server) NewReviewForm(c *fiber.Ctx) error {
	detail, err := s.campgroundService.Detail(c.Context(), c.Params("slug"))
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds")
	}
	return c.JSON(fiber.Map{
		"page":       "reviews/new",
		"campground": detail.Campground,
		"error":      consumeFlash(c, flashErrorCookie),
	})
}

// EditReviewForm handles GET /campgrounds/:slug/reviews/:id/edit
func (s *Server) EditReviewForm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	reviewID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Review not found")
	}

	review, err := s.reviewService.GetReview(c.Context(), reviewID)
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds/"+slug)
	}

	if review.Author.ID != userID {
		admin, adminErr := s.isAdminByUserID(c.Context(), userID)
		if adminErr != nil || !admin {
			return redirectWithError(c, "/campgrounds/"+slug, "You can only edit your own reviews")
		}
	}

	return c.JSON(fiber.Map{
		"page":   "reviews/edit",
		"review": review,
		"error":  consumeFlash(c, flashErrorCookie),
	})
}

// CreateReview handles POST /campgrounds/:slug/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	rating, err := strconv.Atoi(c.FormValue("rating"))
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/"+slug), "Rating must be a number")
	}

	_, err = s.reviewService.CreateReview(c.Context(), service.CreateReviewInput{
		UserID: userID,
		Slug:   slug,
		Rating: rating,
		Text:   c.FormValue("text"),
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Review added")
}

// UpdateReview handles PUT /campgrounds/:slug/reviews/:id
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	reviewID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Review not found")
	}

	rating, err := strconv.Atoi(c.FormValue("rating"))
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/"+slug), "Rating must be a number")
	}

	_, err = s.reviewService.UpdateReview(c.Context(), service.UpdateReviewInput{
		UserID:   userID,
		ReviewID: reviewID,
		Rating:   rating,
		Text:     c.FormValue("text"),
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Review updated")
}

// DeleteReview handles DELETE /campgrounds/:slug/reviews/:id
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	reviewID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Review not found")
	}

	_, err = s.reviewService.DeleteReview(c.Context(), service.DeleteReviewInput{
		UserID:   userID,
		ReviewID: reviewID,
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Review deleted")
}
