package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	userModel "automark_backend/internals/features/users/user/model"
)

// SubscriptionModel: satu baris per order Midtrans.
type SubscriptionModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderOrderID       string     `gorm:"size:64;not null;uniqueIndex" json:"provider_order_id"`
	ProviderTransactionID *string    `gorm:"size:128" json:"provider_transaction_id,omitempty"`
	PlanType              string     `gorm:"size:20;not null" json:"plan_type"`
	Status                string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Amount                int64      `gorm:"not null" json:"amount"`
	SnapToken             *string    `gorm:"size:128" json:"-"`
	RedirectURL           *string    `gorm:"type:text" json:"redirect_url,omitempty"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User *userModel.UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = constants.SubscriptionPending
	}
	return nil
}

// ActiveAt: aktif dan periode belum habis.
func (s *SubscriptionModel) ActiveAt(now time.Time) bool {
	if s.Status != constants.SubscriptionActive {
		return false
	}
	return s.CurrentPeriodEnd == nil || s.CurrentPeriodEnd.After(now)
}
