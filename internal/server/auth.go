package server

import (
	"errors"
	"strconv"
	"strings"

	"encore/internal/middleware"
	"encore/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uint
}

var errNoToken = errors.New("missing bearer token")

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// resolveSession validates the bearer token on c. The subject claim carries the user id.
func (s *Server) resolveSession(c *fiber.Ctx) (Identity, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return Identity{}, errNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if s.config.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.JWTIssuer))
	}
	if s.config.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(s.config.JWTAudience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, errors.Join(errors.New("invalid token"), err)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return Identity{}, errors.New("invalid subject claim")
	}
	return Identity{UserID: uint(userID)}, nil
}

// attachIdentity stores the user and active profile on the request.
func (s *Server) attachIdentity(c *fiber.Ctx, id Identity) error {
	c.Locals("userID", id.UserID)
	c.SetUserContext(middleware.WithLocals(c))

	profileID, err := s.profileService.ActiveProfile(c.UserContext(), id.UserID)
	if err != nil {
		return err
	}
	if profileID != 0 {
		c.Locals("profileID", profileID)
		c.SetUserContext(middleware.WithLocals(c))
	}
	return nil
}

// AuthRequired rejects requests without a valid bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.resolveSession(c)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errNoToken) {
				msg = "Authorization required"
			}
			return respondError(c, models.NewUnauthenticatedError(msg))
		}
		if err := s.attachIdentity(c, id); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present.
// Anything else is served anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.resolveSession(c)
		if err != nil {
			return c.Next()
		}
		if err := s.attachIdentity(c, id); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}
