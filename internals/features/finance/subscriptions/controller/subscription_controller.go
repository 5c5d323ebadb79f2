package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"automark_backend/internals/features/finance/subscriptions/dto"
	"automark_backend/internals/features/finance/subscriptions/service"
	userModel "automark_backend/internals/features/users/user/model"
	helper "automark_backend/internals/helpers"
	helperAuth "automark_backend/internals/helpers/auth"
)

type SubscriptionController struct {
	db  *gorm.DB
	svc *service.Service
}

func NewSubscriptionController(db *gorm.DB, svc *service.Service) *SubscriptionController {
	return &SubscriptionController{db: db, svc: svc}
}

// GET /api/subscriptions/me
func (sc *SubscriptionController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	me, err := sc.svc.Me(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", fiber.Map{"subscription": me})
}

// POST /api/subscriptions/checkout  JSON {plan}
func (sc *SubscriptionController) Checkout(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if fields := helper.ValidateStruct(&req); len(fields) > 0 {
		return helper.JsonValidationError(c, fields)
	}

	var user userModel.UserModel
	if err := sc.db.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}

	out, err := sc.svc.Checkout(c.UserContext(), &user, req.Plan)
	switch {
	case errors.Is(err, service.ErrInvalidPlan):
		return helper.JsonError(c, fiber.StatusBadRequest, "Unknown plan")
	case errors.Is(err, service.ErrPaymentNotConfigured):
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Payments are not available")
	case errors.Is(err, service.ErrGateway):
		return helper.JsonError(c, fiber.StatusBadGateway, "Payment gateway error, please try again")
	case err != nil:
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Checkout created", fiber.Map{"checkout": out})
}

// POST /api/subscriptions/notification (webhook Midtrans, publik)
func (sc *SubscriptionController) Notification(c *fiber.Ctx) error {
	var notif dto.MidtransNotification
	if err := c.BodyParser(&notif); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	sub, err := sc.svc.HandleNotification(c.UserContext(), notif)
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid signature")
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrAmountMismatch):
		// balas 200 supaya Midtrans tidak retry terus
		log.Printf("[MIDTRANS] notifikasi %s diabaikan: %v", notif.OrderID, err)
		return helper.JsonOK(c, "ignored", fiber.Map{"status": "ignored"})
	case err != nil:
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"status":              "ok",
		"subscription_id":     sub.ID,
		"subscription_status": sub.Status,
		"transaction_status":  notif.TransactionStatus,
	})
}
