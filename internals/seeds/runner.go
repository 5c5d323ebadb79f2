package seeds

import (
	"context"
	"path/filepath"

	"gorm.io/gorm"

	"automark_backend/internals/configs"
	"automark_backend/internals/constants"
	"automark_backend/internals/seeds/exams"
	"automark_backend/internals/seeds/users"
)

// RunAllSeeds: user demo (atau dari usersFile) lalu exam TEST123.
func RunAllSeeds(ctx context.Context, db *gorm.DB, store exams.Putter, cfg *configs.Config, usersFile string) error {
	//* User
	inputs := users.DemoUsers()
	if usersFile != "" {
		loaded, err := users.LoadUsersFromJSON(usersFile)
		if err != nil {
			return err
		}
		inputs = loaded
	}
	if _, err := users.SeedUsers(ctx, db, inputs); err != nil {
		return err
	}

	//* Exam, milik teacher pertama di daftar
	for _, u := range inputs {
		if u.Role == constants.RoleTeacher {
			_, err := exams.SeedDemoExam(ctx, db, store, filepath.Join(cfg.Upload.Dir, "seed"), u.UserName)
			return err
		}
	}
	return nil
}
