package server

import (
	"fmt"
	"time"

	"wanderlust/internal/middleware"
	"wanderlust/internal/models"
	"wanderlust/internal/observability"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignupForm handles GET /signup
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":  "signup",
		"error": consumeFlash(c, flashErrorCookie),
	})
}

// LoginForm handles GET /login
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":  "login",
		"error": consumeFlash(c, flashErrorCookie),
	})
}

// Signup handles POST /signup
func (s *Server) Signup(c *fiber.Ctx) error {
	username := c.FormValue("username")
	email := c.FormValue("email")
	password := c.FormValue("password")

	if err := validation.ValidateUsername(username); err != nil {
		return redirectWithError(c, "/signup", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return redirectWithError(c, "/signup", err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return redirectWithError(c, "/signup", err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to hash password", "error", err)
		return redirectWithError(c, "/signup", "Something went wrong")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		if repository.IsDuplicateKey(err) {
			return redirectWithError(c, "/signup", "A user with that username or email already exists")
		}
		middleware.Logger.ErrorContext(c.UserContext(), "failed to create user", "error", err)
		return redirectWithError(c, "/signup", "Something went wrong")
	}

	token, err := s.generateToken(user)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to generate token", "error", err)
		return redirectWithError(c, "/login", "Account created, please log in")
	}
	s.setTokenCookie(c, token)

	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "username", user.Username)
	return redirectWithSuccess(c, "/campgrounds", "Welcome to Wanderlust, "+user.Username+"!")
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return redirectWithError(c, "/login", "Username and password are required")
	}

	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		if repository.IsNotFound(err) {
			return redirectWithError(c, "/login", "Invalid credentials")
		}
		middleware.Logger.ErrorContext(c.UserContext(), "failed to look up user", "error", err)
		return redirectWithError(c, "/login", "Something went wrong")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.LoginFailures.Inc()
		return redirectWithError(c, "/login", "Invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to generate token", "error", err)
		return redirectWithError(c, "/login", "Something went wrong")
	}
	s.setTokenCookie(c, token)

	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "username", user.Username)
	return redirectWithSuccess(c, "/campgrounds", "Welcome back, "+user.Username+"!")
}

// Logout handles POST /logout. The current token's JTI is blacklisted for
// the remainder of its lifetime so it cannot be replayed.
func (s *Server) Logout(c *fiber.Ctx) error {
	if tokenString := c.Cookies(tokenCookie); tokenString != "" {
		s.revokeToken(c, tokenString)
	}
	s.clearTokenCookie(c)
	return redirectWithSuccess(c, "/campgrounds", "You have been logged out")
}

// Refresh handles POST /refresh. It validates the presented token, revokes
// its JTI, and issues a fresh token for the same user.
func (s *Server) Refresh(c *fiber.Ctx) error {
	tokenString := c.Cookies(tokenCookie)
	if tokenString == "" {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		s.clearTokenCookie(c)
		return redirectWithError(c, "/login", "Your session has expired, please log in again")
	}

	sub, _ := claims["sub"].(string)
	user, err := s.userService.GetUserByHex(c.Context(), sub)
	if err != nil {
		s.clearTokenCookie(c)
		return redirectWithError(c, "/login", "Your session has expired, please log in again")
	}

	token, err := s.generateToken(user)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to generate token", "error", err)
		return redirectWithError(c, "/login", "Something went wrong")
	}

	s.revokeToken(c, tokenString)
	s.setTokenCookie(c, token)
	return redirectWithSuccess(c, backURL(c, "/campgrounds"), "Session refreshed")
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID.Hex(),
		"username": user.Username,
		"iss":      "wanderlust-api",
		"aud":      "wanderlust-client",
		"exp":      now.Add(7 * 24 * time.Hour).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}

// parseToken validates signature, issuer and audience, returning the claims.
func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "wanderlust-api" {
		return nil, fmt.Errorf("invalid issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "wanderlust-client" {
		return nil, fmt.Errorf("invalid audience")
	}
	return claims, nil
}

// revokeToken blacklists the token's JTI for as long as the token remains
// valid. Best effort; revocation is skipped when Redis is unavailable.
func (s *Server) revokeToken(c *fiber.Ctx, tokenString string) {
	if s.redis == nil {
		return
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	ttl := 7 * 24 * time.Hour
	if exp, ok := claims["exp"].(float64); ok {
		if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to blacklist token", "error", err)
	}
}

func (s *Server) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (s *Server) clearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
