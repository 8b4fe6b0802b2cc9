package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPaths are tried in order when no config file is named.
var DefaultPaths = []string{"./ndep.yaml", "./config.yaml", "/etc/ndep/config.yaml"}

// Load reads configuration with priority ENV > YAML > env-default tags.
// The file comes from NDEP_CONFIG, then CONFIG_PATH, then the first existing
// entry of DefaultPaths. Without any file the configuration is read from the
// environment alone.
func Load() (*Config, error) {
	if path := os.Getenv("NDEP_CONFIG"); path != "" {
		return LoadFrom(path)
	}
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom is Load with an explicit file path, which must exist. An empty
// path searches DefaultPaths.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
	} else {
		found, err := firstExisting(DefaultPaths)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		path = found
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func firstExisting(paths []string) (string, error) {
	for _, p := range paths {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", nil
}
