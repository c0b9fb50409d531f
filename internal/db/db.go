package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/config"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// Service owns the gorm connection. SQLite is the default so the
// editor runs against a local file; postgres is available for shared
// setups.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
	cfg config.Database
}

func NewService(cfg config.Database, log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		serviceLog.Info("Connecting to Postgres...", "host", cfg.Host, "name", cfg.Name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	default:
		serviceLog.Info("Opening SQLite database...", "path", cfg.Path)
		db, err = gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("open database (%s): %w", cfg.Driver, err)
	}

	return &Service{db: db, log: serviceLog, cfg: cfg}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.Project{},
		&types.Asset{},
		&types.StoryUnit{},
	); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	if s.cfg.Driver != "postgres" {
		return nil
	}
	// Rows for a removed project go with it. Anchor references carry no
	// FK on purpose: deleting a unit may leave dangling anchor_id values
	// and the engine treats those units as new roots.
	s.log.Info("Configuring foreign key relationships...")
	if err := s.db.Exec(`
		ALTER TABLE "story_unit"
		ADD CONSTRAINT "fk_story_unit_project_id"
		FOREIGN KEY ("project_id")
		REFERENCES "project"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("add fk_story_unit_project_id: %w", err)
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
