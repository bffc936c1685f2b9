package server

import (
	"context"
	"time"

	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Flash notice cookies. The rendering layer reads and clears them on the
// next page load.
const (
	flashErrorCookie   = "flash_error"
	flashSuccessCookie = "flash_success"
	tokenCookie        = "token"
)

func setFlash(c *fiber.Ctx, name, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    message,
		Path:     "/",
		Expires:  time.Now().Add(time.Minute),
		HTTPOnly: false,
	})
}

// redirectWithError sends the browser to location with an error notice.
// Failures in this app surface as redirects, not error pages.
func redirectWithError(c *fiber.Ctx, location, message string) error {
	setFlash(c, flashErrorCookie, message)
	return c.Redirect(location, fiber.StatusFound)
}

func redirectWithSuccess(c *fiber.Ctx, location, message string) error {
	setFlash(c, flashSuccessCookie, message)
	return c.Redirect(location, fiber.StatusFound)
}

// consumeFlash reads a flash notice and clears its cookie.
func consumeFlash(c *fiber.Ctx, name string) string {
	message := c.Cookies(name)
	if message != "" {
		c.Cookie(&fiber.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			Expires: time.Now().Add(-time.Hour),
		})
	}
	return message
}

// backURL returns the referring page, or the fallback when the browser sent
// no Referer header.
func backURL(c *fiber.Ctx, fallback string) string {
	if ref := c.Get(fiber.HeaderReferer); ref != "" {
		return ref
	}
	return fallback
}

// currentUserID reads the authenticated user's ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) (bson.ObjectID, bool) {
	raw, ok := c.Locals("userID").(string)
	if !ok || raw == "" {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

// isAdminByUserID is the privileged-actor predicate wired into the services.
func (s *Server) isAdminByUserID(ctx context.Context, userID bson.ObjectID) (bool, error) {
	return s.userService.IsAdmin(ctx, userID)
}

// redirectServiceError maps a service error onto the redirect-with-notice
// flow: the user lands on location with a flash message, and anything
// unexpected is reported generically.
func redirectServiceError(c *fiber.Ctx, err error, location string) error {
	if appErr, ok := err.(*models.AppError); ok {
		switch appErr.Code {
		case "VALIDATION_ERROR", "UNAUTHORIZED", "NOT_FOUND":
			return redirectWithError(c, location, appErr.Message)
		}
	}
	return redirectWithError(c, location, "Something went wrong")
}
