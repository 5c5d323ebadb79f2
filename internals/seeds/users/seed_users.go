package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	authHelper "automark_backend/internals/features/users/auth/helper"
	"automark_backend/internals/features/users/user/model"
)

type UserSeed struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// DemoUsers: akun demo teacher/teacher dan student/student.
func DemoUsers() []UserSeed {
	return []UserSeed{
		{UserName: "teacher", Password: "teacher", Role: constants.RoleTeacher},
		{UserName: "student", Password: "student", Role: constants.RoleStudent},
	}
}

func LoadUsersFromJSON(filePath string) ([]UserSeed, error) {
	log.Println("📥 Membaca file user:", filePath)
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("baca %s: %w", filePath, err)
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return inputs, nil
}

// SeedUsers: user yang username-nya sudah ada dilewati. Mengembalikan jumlah yang dibuat.
func SeedUsers(ctx context.Context, db *gorm.DB, inputs []UserSeed) (int, error) {
	created := 0
	for _, data := range inputs {
		name := strings.TrimSpace(data.UserName)
		if name == "" || data.Password == "" {
			return created, fmt.Errorf("seed user tanpa username/password")
		}
		if !constants.IsValidRole(data.Role) {
			return created, fmt.Errorf("role %q tidak valid untuk %s", data.Role, name)
		}

		var existing model.UserModel
		err := db.WithContext(ctx).Where("user_name = ?", name).First(&existing).Error
		if err == nil {
			log.Printf("ℹ️ User '%s' sudah ada, dilewati.", name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		// 🔐 Hash password sebelum disimpan
		hashed, err := authHelper.HashPassword(data.Password)
		if err != nil {
			return created, fmt.Errorf("hash password %s: %w", name, err)
		}
		u := model.UserModel{
			UserName: name,
			Password: hashed,
			Role:     data.Role,
			IsActive: true,
		}
		if email := strings.TrimSpace(data.Email); email != "" {
			u.Email = &email
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return created, fmt.Errorf("insert user %s: %w", name, err)
		}
		log.Printf("✅ Berhasil insert user '%s'", name)
		created++
	}
	return created, nil
}
