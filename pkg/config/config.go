// Package config handles the teaos.toml settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"teaos/pkg/tvm"
	"teaos/pkg/utils"
)

// FileName is the settings file looked up by the binaries.
const FileName = "teaos.toml"

type Config struct {
	// StoragePath is the host directory the virtual disk is loaded from
	// and persisted to. Empty keeps the disk in memory only.
	StoragePath string `toml:"storage-path"`
	// ImagePath is an optional CBOR disk image loaded at start-up.
	ImagePath  string `toml:"image-path"`
	StepBudget int    `toml:"step-budget"`
	// Verbosity is the commonlog verbosity; 0 logs errors only.
	Verbosity int  `toml:"verbosity"`
	Color     bool `toml:"color"`
}

func Default() Config {
	return Config{
		StepBudget: tvm.DefaultStepBudget,
		Color:      true,
	}
}

// Load reads a settings file. A missing file yields the defaults; keys not
// present in the file keep their default values. Relative paths in the file
// are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.StepBudget <= 0 {
		return Default(), fmt.Errorf("%s: step-budget must be positive, got %d", path, cfg.StepBudget)
	}

	_, dir, err := utils.GetPathInfo(path)
	if err != nil {
		return Default(), fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	cfg.StoragePath = resolve(dir, cfg.StoragePath)
	cfg.ImagePath = resolve(dir, cfg.ImagePath)
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
