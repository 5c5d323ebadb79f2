package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
	"automark_backend/internals/features/users/auth/service"
	userDTO "automark_backend/internals/features/users/user/dto"
	helper "automark_backend/internals/helpers"
	helperAuth "automark_backend/internals/helpers/auth"
)

type AuthController struct {
	svc *service.Service
	cfg configs.AuthConfig
}

func NewAuthController(svc *service.Service, cfg configs.AuthConfig) *AuthController {
	return &AuthController{svc: svc, cfg: cfg}
}

/* ========== REGISTER ========== */

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req userDTO.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if req.Username == "" || req.Password == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "Missing required fields")
	}
	if errs := helper.ValidateStruct(req); errs != nil {
		return helper.JsonValidationError(c, errs)
	}

	user, err := ac.svc.Register(c.UserContext(), req)
	if err != nil {
		return ac.authError(c, err)
	}
	return helper.JsonCreated(c, "Registration successful", fiber.Map{"user": userDTO.FromModel(user)})
}

/* ========== LOGIN ========== */

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req userDTO.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if req.Username == "" || req.Password == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "Missing username or password")
	}

	sess, err := ac.svc.Login(c.UserContext(), req)
	if err != nil {
		return ac.authError(c, err)
	}
	return ac.writeSession(c, sess)
}

func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error {
	var req userDTO.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := helper.ValidateStruct(req); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	sess, err := ac.svc.LoginGoogle(c.UserContext(), req)
	if err != nil {
		return ac.authError(c, err)
	}
	return ac.writeSession(c, sess)
}

func (ac *AuthController) writeSession(c *fiber.Ctx, sess *service.Session) error {
	c.Cookie(ac.cookie(sess.Token, sess.ExpiresAt))
	return helper.JsonOK(c, "Login successful", fiber.Map{
		"user":         userDTO.FromModel(sess.User),
		"access_token": sess.Token,
		"expires_at":   sess.ExpiresAt,
	})
}

/* ========== LOGOUT ========== */

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.svc.Logout(c.UserContext(), helperAuth.RawAccessToken(c)); err != nil {
		log.Printf("[WARN] Failed to blacklist token: %v", err)
	}
	c.Cookie(ac.cookie("", time.Unix(0, 0)))
	return helper.JsonOK(c, "Logged out successfully", nil)
}

/* ========== SESSION ========== */

// CheckSession dipasang di belakang OptionalAuth.
func (ac *AuthController) CheckSession(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success":       true,
			"authenticated": false,
		})
	}
	return helper.JsonOK(c, "", fiber.Map{
		"authenticated": true,
		"user_id":       userID,
		"username":      helperAuth.GetUserName(c),
		"role":          helperAuth.GetRole(c),
	})
}

/* ========== PASSWORD ========== */

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	var req userDTO.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if errs := helper.ValidateStruct(req); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	if err := ac.svc.ChangePassword(c.UserContext(), userID, req); err != nil {
		return ac.authError(c, err)
	}
	return helper.JsonUpdated(c, "Password changed successfully", nil)
}

/* ========== helpers ========== */

func (ac *AuthController) cookie(value string, expires time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if ac.cfg.SecureCookie {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	ck := &fiber.Cookie{
		Name:     helperAuth.AccessCookieName,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   ac.cfg.SecureCookie,
		SameSite: sameSite,
		Expires:  expires,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	return ck
}

func (ac *AuthController) authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return helper.JsonError(c, fiber.StatusBadRequest, "Missing required fields")
	case errors.Is(err, service.ErrUsernameTaken):
		return helper.JsonError(c, fiber.StatusBadRequest, "Username already exists")
	case errors.Is(err, service.ErrInvalidRole):
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid role")
	case errors.Is(err, service.ErrInvalidCredentials):
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrWrongPassword):
		return helper.JsonError(c, fiber.StatusUnauthorized, "Current password incorrect")
	case errors.Is(err, service.ErrInvalidGoogleToken):
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid Google ID Token")
	case errors.Is(err, service.ErrAccountInactive):
		return helper.JsonError(c, fiber.StatusForbidden, "Account is deactivated")
	case errors.Is(err, service.ErrGoogleNotConfigured):
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Google login is not configured")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}
	return helper.FromFiberError(c, err)
}
