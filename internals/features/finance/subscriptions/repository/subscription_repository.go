package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	subsModel "automark_backend/internals/features/finance/subscriptions/model"
)

func Create(ctx context.Context, db *gorm.DB, m *subsModel.SubscriptionModel) error {
	return db.WithContext(ctx).Create(m).Error
}

func Save(ctx context.Context, db *gorm.DB, m *subsModel.SubscriptionModel) error {
	return db.WithContext(ctx).Save(m).Error
}

func FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*subsModel.SubscriptionModel, error) {
	var m subsModel.SubscriptionModel
	if err := db.WithContext(ctx).First(&m, "provider_order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindActive: subscription aktif dengan periode terjauh. nil kalau tidak ada.
func FindActive(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time) (*subsModel.SubscriptionModel, error) {
	var m subsModel.SubscriptionModel
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (current_period_end IS NULL OR current_period_end > ?)",
			userID, constants.SubscriptionActive, now).
		Order("current_period_end DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func FindLatest(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*subsModel.SubscriptionModel, error) {
	var m subsModel.SubscriptionModel
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ExpireDue: active yang periodenya sudah lewat → expired.
func ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&subsModel.SubscriptionModel{}).
		Where("status = ? AND current_period_end IS NOT NULL AND current_period_end <= ?", constants.SubscriptionActive, now).
		Updates(map[string]any{"status": constants.SubscriptionExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}
