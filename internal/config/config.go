// Package config loads InterpreterConfig from a TOML file, generalizing
// the teacher's maggie.toml project-manifest loader (manifest/manifest.go)
// from per-project build metadata to per-run interpreter tuning.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/objectir-lang/objectir/vm"
)

// Limits mirrors vm.Config: the RecursionLimit/eval-stack bounds and the
// ToBool coercion epsilon.
type Limits struct {
	MaxCallDepth int     `toml:"max-call-depth"`
	MaxEvalStack int     `toml:"max-eval-stack"`
	Epsilon      float64 `toml:"epsilon"`
}

// Console configures the standard-library Console sink.
type Console struct {
	RedirectToFile string `toml:"redirect-to-file"`
}

// InterpreterConfig is the root of a parsed configuration file. A zero
// value behaves exactly as spec.md describes with no configuration
// surface at all: ToVMConfig's zero fields fall back to vm.DefaultConfig.
type InterpreterConfig struct {
	Limits  Limits  `toml:"limits"`
	Console Console `toml:"console"`
}

// Load parses an InterpreterConfig from path.
func Load(path string) (*InterpreterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var cfg InterpreterConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &cfg, nil
}

// ToVMConfig converts the parsed [limits] table into a vm.Config, leaving
// unset (zero) fields to vm.NewInterpreter's orDefault fallback.
func (c *InterpreterConfig) ToVMConfig() vm.Config {
	if c == nil {
		return vm.Config{}
	}
	return vm.Config{
		MaxCallDepth: c.Limits.MaxCallDepth,
		MaxEvalStack: c.Limits.MaxEvalStack,
		Epsilon:      c.Limits.Epsilon,
	}
}
