package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// Fiber locals populated by JWTProtected and read by the guards and handlers.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// AccessClaims is the token payload issued to students, instructors and admins.
// The subject carries the numeric user id; user_id is accepted for older tokens.
type AccessClaims struct {
	Role   string      `json:"role"`
	UserID json.Number `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// UserIdentifier resolves the numeric user id from the subject or user_id claim.
func (c AccessClaims) UserIdentifier() (uint, bool) {
	for _, raw := range []string{c.Subject, c.UserID.String()} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil && parsed > 0 {
			return uint(parsed), true
		}
	}
	return 0, false
}

// JWTProtected validates HMAC bearer tokens and binds the caller's id and role.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		claims := &AccessClaims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, ok := claims.UserIdentifier()
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(LocalUserID, userID)
		if role := strings.ToLower(strings.TrimSpace(claims.Role)); role != "" {
			c.Locals(LocalUserRole, role)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
