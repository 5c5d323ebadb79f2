package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	subsModel "automark_backend/internals/features/finance/subscriptions/model"
)

type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic premium"`
}

func (r *CheckoutRequest) Normalize() {
	r.Plan = strings.ToLower(strings.TrimSpace(r.Plan))
}

// MidtransNotification: payload webhook. Field lain diabaikan.
type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
}

type CheckoutResponse struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	OrderID        string    `json:"order_id"`
	Plan           string    `json:"plan"`
	Amount         int64     `json:"amount"`
	SnapToken      string    `json:"snap_token"`
	RedirectURL    string    `json:"redirect_url"`
}

type SubscriptionResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          string     `json:"order_id"`
	Plan             string     `json:"plan"`
	Status           string     `json:"status"`
	Amount           int64      `json:"amount"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func FromModel(m *subsModel.SubscriptionModel) *SubscriptionResponse {
	if m == nil {
		return nil
	}
	return &SubscriptionResponse{
		ID:               m.ID,
		OrderID:          m.ProviderOrderID,
		Plan:             m.PlanType,
		Status:           m.Status,
		Amount:           m.Amount,
		CurrentPeriodEnd: m.CurrentPeriodEnd,
		CreatedAt:        m.CreatedAt,
	}
}

// MeResponse: plan efektif user sekarang (free kalau tidak ada yang aktif).
type MeResponse struct {
	Plan          string                `json:"plan"`
	Active        *SubscriptionResponse `json:"active"`
	Latest        *SubscriptionResponse `json:"latest"`
	FreeExamLimit int                   `json:"free_exam_limit"`
}
