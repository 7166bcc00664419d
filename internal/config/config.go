package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

type StorageConfig struct {
	// DataDir is where the JSON file stores live when DatabaseURL is
	// unset. Empty means in-memory only.
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

func Default() Config {
	return Config{
		Server:    ServerConfig{Port: 8080},
		Storage:   StorageConfig{DataDir: "data"},
		Scheduler: SchedulerConfig{Enabled: true},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; the defaults plus env overrides are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
