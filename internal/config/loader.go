package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigFile is read when no path is given and the file exists.
const DefaultConfigFile = "barcount.yaml"

// Load reads the barcount configuration from the file named by CONFIG_PATH.
// See LoadFile.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

// LoadFile reads the barcount configuration. Environment variables win over
// the YAML file, which wins over struct defaults. A non-empty path must
// exist; an empty path falls back to DefaultConfigFile in the working
// directory, and to the environment alone when that is missing too.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	path = strings.TrimSpace(path)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("load barcount config %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("open barcount config: %w", statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("load barcount config from env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid barcount config: %w", err)
	}
	return &cfg, nil
}
