package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Values come from an optional YAML file;
// command-line flags override whatever the file set.
type Config struct {
	Addr      string `yaml:"addr"`
	DSN       string `yaml:"dsn"`
	PageLimit int    `yaml:"pageLimit"`
}

func Default() Config {
	return Config{
		Addr:      ":4000",
		DSN:       "./dwitter.db",
		PageLimit: 10,
	}
}

// Load reads the config file at path into the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %v", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %v", path, err)
	}

	return cfg, nil
}
