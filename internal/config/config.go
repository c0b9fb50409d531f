package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/utils"
)

// Config is the process configuration. Defaults come from the
// environment; an optional YAML file named by STORYGRAPH_CONFIG is
// layered on top for local setups that prefer a file.
type Config struct {
	Port           int      `yaml:"port"`
	LogMode        string   `yaml:"log_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Database       Database `yaml:"database"`
}

type Database struct {
	Driver   string `yaml:"driver"` // "sqlite" or "postgres"
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func Load(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:    utils.GetEnvAsInt("PORT", 8080, log),
		LogMode: utils.GetEnv("LOG_MODE", "development", log),
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		Database: Database{
			Driver:   utils.GetEnv("DB_DRIVER", "sqlite", log),
			Path:     utils.GetEnv("SQLITE_PATH", "storygraph.db", log),
			Host:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
			Port:     utils.GetEnv("POSTGRES_PORT", "5432", log),
			User:     utils.GetEnv("POSTGRES_USER", "postgres", log),
			Password: utils.GetEnv("POSTGRES_PASSWORD", "", log),
			Name:     utils.GetEnv("POSTGRES_NAME", "storygraph", log),
		},
	}

	path := utils.GetEnv("STORYGRAPH_CONFIG", "", nil)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	log.Info("Loaded config file", "path", path)
	return cfg, nil
}
