package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ============================================
   Locals Keys (diisi middleware AuthJWT)
============================================ */

const (
	LocUserID   = "user_id"
	LocRole     = "userRole"
	LocUserName = "user_name"
	LocRawToken = "raw_token"
	LocClaims   = "jwt_claims"
)

// GetUserID: 401 kalau belum login, 400 kalau formatnya tidak valid.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	var s string
	switch t := c.Locals(LocUserID).(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Not logged in")
		}
		return t, nil
	case string:
		s = strings.TrimSpace(t)
	case nil:
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user id in token")
	}
	if s == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Not logged in")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user id in token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocRole).(string)
	return role
}

func GetUserName(c *fiber.Ctx) string {
	name, _ := c.Locals(LocUserName).(string)
	return name
}

func GetRawToken(c *fiber.Ctx) string {
	raw, _ := c.Locals(LocRawToken).(string)
	return raw
}

// RawAccessToken: Authorization: Bearer ... atau cookie access_token.
func RawAccessToken(c *fiber.Ctx) string {
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return strings.TrimSpace(c.Cookies(AccessCookieName))
}
