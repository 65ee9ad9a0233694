package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// Roles understood by the guards. AuthRoleAny admits every caller.
const (
	AuthRoleAny        = "any"
	AuthRoleAdmin      = "admin"
	AuthRoleInstructor = "instructor"
	AuthRoleStudent    = "student"
)

// AuthOptions configures WithAuth and Guard.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with authentication and role guards. The
// instructor role also admits admins.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	check := roleCheck(opts)
	return func(c *fiber.Ctx) error {
		if ok, err := check(c); !ok {
			return err
		}
		return handler(c)
	}
}

// Guard is WithAuth in middleware form, for route groups.
func Guard(opts AuthOptions) fiber.Handler {
	check := roleCheck(opts)
	return func(c *fiber.Ctx) error {
		if ok, err := check(c); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole admits callers holding exactly one of roles. Unlike Guard it does
// not widen instructor to admin.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[normalizeRoleValue(c.Locals(LocalUserRole))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// roleCheck reports whether the request may proceed. When it may not, the
// rejection has already been written and err is the result of writing it.
func roleCheck(opts AuthOptions) func(c *fiber.Ctx) (bool, error) {
	role := normalizeRoleValue(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) (bool, error) {
		if requireUser && c.Locals(LocalUserID) == nil {
			return false, utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if role == AuthRoleAny {
			return true, nil
		}

		current := normalizeRoleValue(c.Locals(LocalUserRole))
		if current == role || (role == AuthRoleInstructor && current == AuthRoleAdmin) {
			return true, nil
		}
		return false, utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
	}
}
