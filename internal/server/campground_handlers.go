package server

import (
	"io"
	"strconv"

	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCampgrounds handles GET /campgrounds
func (s *Server) ListCampgrounds(c *fiber.Ctx) error {
	page, err := s.campgroundService.List(c.Context(), service.ListCampgroundsInput{
		Page:   c.QueryInt("page", 1),
		Search: c.Query("search"),
	})
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds")
	}

	return c.JSON(fiber.Map{
		"page":    page,
		"error":   consumeFlash(c, flashErrorCookie),
		"success": consumeFlash(c, flashSuccessCookie),
	})
}

// NewCampgroundForm handles GET /campgrounds/new
func (s *Server) NewCampgroundForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":  "campgrounds/new",
		"error": consumeFlash(c, flashErrorCookie),
	})
}

// CreateCampground handles POST /campgrounds
func (s *Server) CreateCampground(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/new"), "Price must be a number")
	}

	filename, data, err := formImage(c)
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/new"), "Could not read the uploaded image")
	}

	campground, err := s.campgroundService.Create(c.Context(), service.CreateCampgroundInput{
		UserID:        userID,
		Name:          c.FormValue("name"),
		Price:         price,
		Description:   c.FormValue("description"),
		Location:      c.FormValue("location"),
		ImageURL:      c.FormValue("image"),
		ImageFilename: filename,
		ImageData:     data,
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/new"))
	}

	return redirectWithSuccess(c, "/campgrounds/"+campground.Slug, "Successfully created "+campground.Name+"!")
}

// GetCampground handles GET /campgrounds/:slug
func (s *Server) GetCampground(c *fiber.Ctx) error {
	detail, err := s.campgroundService.Detail(c.Context(), c.Params("slug"))
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds"))
	}

	return c.JSON(fiber.Map{
		"campground": detail.Campground,
		"comments":   detail.Comments,
		"reviews":    detail.Reviews,
		"likers":     detail.Likers,
		"error":      consumeFlash(c, flashErrorCookie),
		"success":    consumeFlash(c, flashSuccessCookie),
	})
}

// ToggleLike handles POST /campgrounds/:slug/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	liked, err := s.campgroundService.ToggleLike(c.Context(), service.ToggleLikeInput{
		UserID: userID,
		Slug:   slug,
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds"))
	}

	message := "Removed from your likes"
	if liked {
		message = "Added to your likes"
	}
	return redirectWithSuccess(c, backURL(c, "/campgrounds/"+slug), message)
}

// EditCampgroundForm handles GET /campgrounds/:slug/edit
func (s *Server) EditCampgroundForm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	detail, err := s.campgroundService.Detail(c.Context(), c.Params("slug"))
	if err != nil {
		return redirectServiceError(c, err, "/campgrounds")
	}

	if detail.Campground.Author.ID != userID {
		admin, adminErr := s.isAdminByUserID(c.Context(), userID)
		if adminErr != nil || !admin {
			return redirectWithError(c, "/campgrounds/"+detail.Campground.Slug, "You can only edit your own campgrounds")
		}
	}

	return c.JSON(fiber.Map{
		"page":       "campgrounds/edit",
		"campground": detail.Campground,
		"error":      consumeFlash(c, flashErrorCookie),
	})
}

// UpdateCampground handles PUT /campgrounds/:slug
func (s *Server) UpdateCampground(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	slug := c.Params("slug")
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/"+slug+"/edit"), "Price must be a number")
	}

	filename, data, err := formImage(c)
	if err != nil {
		return redirectWithError(c, backURL(c, "/campgrounds/"+slug+"/edit"), "Could not read the uploaded image")
	}

	campground, err := s.campgroundService.Update(c.Context(), service.UpdateCampgroundInput{
		UserID:        userID,
		Slug:          slug,
		Name:          c.FormValue("name"),
		Price:         price,
		Description:   c.FormValue("description"),
		Location:      c.FormValue("location"),
		ImageURL:      c.FormValue("image"),
		ImageFilename: filename,
		ImageData:     data,
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds/"+slug+"/edit"))
	}

	return redirectWithSuccess(c, "/campgrounds/"+campground.Slug, "Successfully updated "+campground.Name+"!")
}

// DeleteCampground handles DELETE /campgrounds/:slug
func (s *Server) DeleteCampground(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	err := s.campgroundService.Delete(c.Context(), service.DeleteCampgroundInput{
		UserID: userID,
		Slug:   c.Params("slug"),
	})
	if err != nil {
		return redirectServiceError(c, err, backURL(c, "/campgrounds"))
	}

	return redirectWithSuccess(c, "/campgrounds", "Campground deleted")
}

// formImage reads an optional multipart file field named "file". A request
// without the field is not an error.
func formImage(c *fiber.Ctx) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, nil
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
