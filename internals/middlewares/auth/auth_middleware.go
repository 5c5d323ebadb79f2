// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	helperAuth "automark_backend/internals/helpers/auth"
)

// BlacklistChecker: token yang sudah logout (auth service).
type BlacklistChecker interface {
	IsRevoked(ctx context.Context, rawToken string) (bool, error)
}

// AuthJWT mewajibkan token valid (Bearer atau cookie access_token).
func AuthJWT(secret string, blacklist BlacklistChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := helperAuth.RawAccessToken(c)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Missing token")
		}
		return authenticate(c, secret, blacklist, raw)
	}
}

// OptionalAuth mengisi locals kalau ada token valid, selain itu lanjut sebagai anonim.
func OptionalAuth(secret string, blacklist BlacklistChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := helperAuth.RawAccessToken(c)
		if raw == "" {
			return c.Next()
		}
		claims, err := verify(c, secret, blacklist, raw)
		if err != nil {
			return c.Next()
		}
		applyClaims(c, raw, claims)
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret string, blacklist BlacklistChecker, raw string) error {
	claims, err := verify(c, secret, blacklist, raw)
	if err != nil {
		return err
	}
	applyClaims(c, raw, claims)
	return c.Next()
}

func verify(c *fiber.Ctx, secret string, blacklist BlacklistChecker, raw string) (*helperAuth.AccessClaims, error) {
	if secret == "" {
		log.Println("[ERROR] JWT_SECRET kosong")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
	}
	claims, err := helperAuth.ParseAccessToken(secret, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or expired token")
	}
	if blacklist != nil {
		revoked, err := blacklist.IsRevoked(c.UserContext(), raw)
		if err != nil {
			log.Println("[ERROR] cek blacklist:", err)
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}
		if revoked {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token is blacklisted")
		}
	}
	if err := validateClaims(claims); err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - "+err.Error())
	}
	return claims, nil
}
