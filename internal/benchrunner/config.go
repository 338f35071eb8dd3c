package benchrunner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects what the bench binary measures. Loaded from a YAML file;
// zero fields fall back to defaults.
type Config struct {
	// Iterations is how many times each backend/payload combination runs.
	Iterations int `yaml:"iterations"`
	// EntryCount is the number of entries offered per run.
	EntryCount int `yaml:"entry_count"`
	// PayloadSizes lists the entry payload sizes in bytes to sweep over.
	PayloadSizes []int `yaml:"payload_sizes"`
	// MemoryLimit is the queue's in-memory entry limit.
	MemoryLimit int `yaml:"memory_limit"`
	// FSMaxBytes is the filesystem backend's byte limit per run.
	FSMaxBytes int64 `yaml:"fs_max_bytes"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Iterations:   3,
		EntryCount:   10000,
		PayloadSizes: []int{64, 512, 4096},
		MemoryLimit:  1024,
		FSMaxBytes:   64 << 20,
	}
}

// LoadConfig reads a YAML config file and fills unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("benchrunner: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("benchrunner: parse config %q: %w", path, err)
	}

	def := DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.EntryCount <= 0 {
		cfg.EntryCount = def.EntryCount
	}
	if len(cfg.PayloadSizes) == 0 {
		cfg.PayloadSizes = def.PayloadSizes
	}
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = def.MemoryLimit
	}
	if cfg.FSMaxBytes <= 0 {
		cfg.FSMaxBytes = def.FSMaxBytes
	}
	return cfg, nil
}
