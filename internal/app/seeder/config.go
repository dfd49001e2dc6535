package seeder

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds seed-catalog settings. Command-line flags override it.
type Config struct {
	CatalogPath string `env:"SEEDER_CATALOG_PATH"`
	DryRun      bool   `env:"SEEDER_DRY_RUN"`
	// Notify publishes a catalog-changed event when Redis is configured.
	Notify bool `env:"SEEDER_NOTIFY" env-default:"true"`
}

// LoadConfig reads the seeder settings from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seeder config: read env: %w", err)
	}
	return &cfg, nil
}
