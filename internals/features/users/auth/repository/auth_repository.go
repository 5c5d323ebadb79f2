package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "automark_backend/internals/features/users/auth/model"
	userModel "automark_backend/internals/features/users/user/model"
)

/* ====================== USER ====================== */

func FindUserByUserName(ctx context.Context, db *gorm.DB, userName string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByLogin: identifier boleh username atau email.
func FindUserByLogin(ctx context.Context, db *gorm.DB, identifier string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).
		Where("user_name = ? OR email = ?", identifier, identifier).
		Order("created_at ASC").
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByGoogleID(ctx context.Context, db *gorm.DB, googleID string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db *gorm.DB, user *userModel.UserModel) error {
	return db.WithContext(ctx).Create(user).Error
}

func UpdateUserPassword(ctx context.Context, db *gorm.DB, userID uuid.UUID, newPassword string) error {
	return db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Update("password", newPassword).Error
}

// IsUsernameTaken: cek apakah username sudah dipakai
func IsUsernameTaken(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	if username == "" {
		return false, errors.New("username cannot be empty")
	}
	var n int64
	if err := db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("user_name = ?", username).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

/* ====================== BLACKLIST TOKEN ====================== */

// BlacklistToken idempotent: hash yang sama tidak menambah baris.
func BlacklistToken(ctx context.Context, db *gorm.DB, tokenHash string, expiredAt time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&authModel.TokenBlacklist{Token: tokenHash, ExpiredAt: expiredAt.UTC()}).Error
}

func IsTokenBlacklisted(ctx context.Context, db *gorm.DB, tokenHash string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&authModel.TokenBlacklist{}).
		Where("token = ?", tokenHash).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpiredBlacklist menghapus token yang expired_at < before, maksimal limit baris.
func CleanupExpiredBlacklist(ctx context.Context, db *gorm.DB, before time.Time, limit int) (int64, error) {
	sub := db.Model(&authModel.TokenBlacklist{}).
		Select("id").
		Where("expired_at < ?", before.UTC()).
		Limit(limit)
	res := db.WithContext(ctx).Where("id IN (?)", sub).Delete(&authModel.TokenBlacklist{})
	return res.RowsAffected, res.Error
}
