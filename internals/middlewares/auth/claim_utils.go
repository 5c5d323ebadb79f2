package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"automark_backend/internals/constants"
	helperAuth "automark_backend/internals/helpers/auth"
)

func validateClaims(claims *helperAuth.AccessClaims) error {
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return errors.New("invalid or missing user ID")
	}
	if !constants.IsValidRole(claims.Role) {
		return errors.New("invalid role")
	}
	return nil
}

func applyClaims(c *fiber.Ctx, raw string, claims *helperAuth.AccessClaims) {
	c.Locals(helperAuth.LocUserID, claims.UserID)
	c.Locals(helperAuth.LocRole, claims.Role)
	c.Locals(helperAuth.LocUserName, claims.UserName)
	c.Locals(helperAuth.LocRawToken, raw)
	c.Locals(helperAuth.LocClaims, claims)
}
