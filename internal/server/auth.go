package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Tiliavir/worktime/internal/model"
)

// Auth modes.
const (
	AuthNone = "none"
	AuthJWT  = "jwt"
)

// DefaultUserID is the identity used in AuthNone mode when X-User-ID is absent.
const DefaultUserID = "local"

// AuthConfig holds authentication configuration. Tokens are issued by an
// external identity provider; the server only verifies them.
type AuthConfig struct {
	Mode       string // "none" or "jwt"
	Secret     []byte
	Issuer     string
	AdminUsers []string
}

// Claims are the token claims worktime reads. The subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// IssueToken signs an HS256 token for claims that expires after expiry.
// It exists for local development and tests.
func IssueToken(secret []byte, claims *Claims, expiry time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty secret")
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken parses and validates tokenStr. The signing method is pinned
// to HS256.
func ValidateToken(cfg AuthConfig, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// authMiddleware identifies the caller and stores the *model.User in Locals.
func (s *Server) authMiddleware() fiber.Handler {
	cfg := s.config.Auth
	return func(c *fiber.Ctx) error {
		var u model.User

		switch cfg.Mode {
		case AuthJWT:
			header := c.Get(fiber.HeaderAuthorization)
			if header == "" {
				return problemResponse(c, fiber.StatusUnauthorized,
					"missing_auth", "Unauthorized", "Authorization header is required")
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_auth_scheme", "Unauthorized", "Authorization header must use Bearer scheme")
			}
			claims, err := ValidateToken(cfg, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("path", c.Path()).
					Str("method", c.Method()).
					Msg("unauthorized request: invalid token")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_token", "Unauthorized", "Invalid or expired token")
			}
			u = model.User{ID: claims.Subject, Email: claims.Email, DisplayName: claims.Name, Role: model.RoleUser}
		default:
			// Local development: trust the header.
			u = model.User{ID: c.Get("X-User-ID"), Role: model.RoleUser}
			if u.ID == "" {
				u.ID = DefaultUserID
			}
		}

		if slices.Contains(cfg.AdminUsers, u.ID) {
			u.Role = model.RoleAdmin
		}
		if err := s.store.UpsertUser(c.UserContext(), &u); err != nil {
			return s.storeError(c, err)
		}
		if cfg.Mode == AuthNone {
			// Admin for this request only; the stored role is left alone.
			u.Role = model.RoleAdmin
		}
		c.Locals("user", &u)
		return c.Next()
	}
}

// requireRole returns a middleware that admits only callers with role.
func requireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || (u.Role != role && u.Role != model.RoleAdmin) {
			return problemResponse(c, fiber.StatusForbidden,
				"insufficient_role", "Forbidden", "Insufficient permissions for this operation")
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals("user").(*model.User)
	return u
}
