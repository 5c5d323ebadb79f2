package commands

import (
	"context"
	"os"
	"strings"
	"sync"

	"gorm.io/gorm"

	"automark_backend/internals/configs"
	database "automark_backend/internals/databases"
	routes "automark_backend/internals/route"
)

// commandContext: config + DB dibuka sekali per proses, lazy.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *configs.Config
	configErr  error

	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*configs.Config, error) {
	c.configOnce.Do(func() {
		configs.LoadEnv()
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				_ = os.Setenv("CONFIG_FILE", path)
			}
		}
		c.config, c.configErr = configs.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureDB() (*gorm.DB, error) {
	c.dbOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.dbErr = err
			return
		}
		c.db, c.dbErr = database.Open(cfg.Database)
	})
	return c.db, c.dbErr
}

func (c *commandContext) deps(ctx context.Context) (*routes.Deps, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := c.ensureDB()
	if err != nil {
		return nil, err
	}
	return routes.BuildDeps(ctx, cfg, db)
}

func (c *commandContext) close() {
	if c.db != nil {
		database.Close(c.db)
	}
}
