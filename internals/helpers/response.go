package helper

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

/* ===============================
   Envelope: {success, message, ...payload}
=================================*/

type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

func jsonSuccess(c *fiber.Ctx, status int, message, fallback string, payload fiber.Map) error {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	for k, v := range payload {
		if k == "success" || k == "message" {
			continue
		}
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// JsonOK: payload ditaruh di level atas (mis. {"exams": [...]}).
func JsonOK(c *fiber.Ctx, message string, payload fiber.Map) error {
	return jsonSuccess(c, fiber.StatusOK, message, "ok", payload)
}

func JsonCreated(c *fiber.Ctx, message string, payload fiber.Map) error {
	return jsonSuccess(c, fiber.StatusCreated, message, "created", payload)
}

func JsonUpdated(c *fiber.Ctx, message string, payload fiber.Map) error {
	return jsonSuccess(c, fiber.StatusOK, message, "updated", payload)
}

// JsonList: list + pagination di bawah key yang diberikan.
func JsonList(c *fiber.Ctx, message, key string, items any, pagination Pagination) error {
	pagination.Count = lenOf(items)
	return jsonSuccess(c, fiber.StatusOK, message, "ok", fiber.Map{
		key:          items,
		"pagination": pagination,
	})
}

func JsonError(c *fiber.Ctx, status int, message string) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = fiber.NewError(status).Message
	}
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: statusToErrorCode(status),
	})
}

// JsonValidationError: khusus error validasi (422)
func JsonValidationError(c *fiber.Ctx, fieldErrors map[string][]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string][]string{}
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
		Success:   false,
		Message:   "validation failed",
		ErrorCode: "VALIDATION_ERROR",
		Errors:    fieldErrors,
	})
}

// FromFiberError: *fiber.Error → envelope; selain itu 500.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return JsonError(c, fiber.StatusInternalServerError, "Internal server error")
}

// ErrorHandler untuk fiber.Config. Pesan error internal tidak diteruskan ke client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] unhandled %s %s: %v", c.Method(), c.OriginalURL(), err)
	return JsonError(c, fiber.StatusInternalServerError, "Internal server error")
}
