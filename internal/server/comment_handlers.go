package server

import (
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NewCommentForm handles GET /campgrounds/:slug/comments/new
func (s *Server) NewCommentForm(c *fiber.Ctx) error {
	slug := c.Params("slug")
	detail, err := s.campgroundService.Detail(c.Context(), slug)
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds")
	}
	return c.JSON(fiber.Map{
		"page":       "comments/new",
		"campground": detail.Campground,
		"error":      consumeFlash(c, flashErrorCookie),
	})
}

// CreateComment handles POST /campgrounds/:slug/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	_, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID: userID,
		Slug:   slug,
		Text:   c.FormValue("text"),
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Comment added")
}

// EditCommentForm handles GET /campgrounds/:slug/comments/:id/edit
func (s *Server) EditCommentForm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	commentID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Comment not found")
	}

	comment, err := s.commentService.GetComment(c.Context(), commentID)
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds/"+slug)
	}

	if comment.Author.ID != userID {
		admin, adminErr := s.isAdminByUserID(c.Context(), userID)
		if adminErr != nil || !admin {
			return redirectWithError(c, "/campgrounds/"+slug, "You can only edit your own comments")
		}
	}

	return c.JSON(fiber.Map{
		"page":    "comments/edit",
		"comment": comment,
		"error":   consumeFlash(c, flashErrorCookie),
	})
}

// UpdateComment handles PUT /campgrounds/:slug/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	commentID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Comment not found")
	}

	_, err = s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Text:      c.FormValue("text"),
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Comment updated")
}

// DeleteComment handles DELETE /campgrounds/:slug/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	commentID, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return redirectWithError(c, "/campgrounds/"+slug, "Comment not found")
	}

	_, err = s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug))
	}

	return redirectWithSuccess(c, "/campgrounds/"+slug, "Comment deleted")
}
