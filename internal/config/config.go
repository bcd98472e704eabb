// Package config loads checker configuration with the usual precedence:
// flags > environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Tolerances are the numeric thresholds the geometric rules compare
// against. Defaults follow common checker practice; all are overridable.
type Tolerances struct {
	// FloatEpsilon is the general closeness threshold for float and
	// polynomial-coefficient comparison.
	FloatEpsilon float64 `koanf:"float_epsilon"`
	// LengthTolerance is the absolute tolerance in meters when comparing a
	// declared geometry length against the integrated curve length.
	LengthTolerance float64 `koanf:"length_tolerance"`
	// HorizontalGap is the maximum planar distance in meters allowed
	// between boundary points that should coincide.
	HorizontalGap float64 `koanf:"horizontal_gap"`
	// OverlapSampleStep is the s sampling step in meters for lane border
	// overlap detection.
	OverlapSampleStep float64 `koanf:"overlap_sample_step"`
}

// Config is the full runtime configuration of a check run.
type Config struct {
	Tolerances Tolerances `koanf:"tolerances"`
	// Workers bounds the checker worker pool. Zero means NumCPU.
	Workers int `koanf:"workers"`
	// SeverityOverrides maps rule uid to a severity name replacing the
	// rule's declared severity.
	SeverityOverrides map[string]string `koanf:"severity_overrides"`
	// Disabled lists rule uids to skip entirely.
	Disabled []string `koanf:"disabled"`
	Output   string   `koanf:"output"`
	Verbose  bool     `koanf:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tolerances: Tolerances{
			FloatEpsilon:      1e-6,
			LengthTolerance:   0.001,
			HorizontalGap:     0.01,
			OverlapSampleStep: 0.5,
		},
		Workers: runtime.NumCPU(),
	}
}

// IsDisabled reports whether a rule uid is listed in Disabled.
func (c *Config) IsDisabled(ruleUID string) bool {
	for _, d := range c.Disabled {
		if d == ruleUID {
			return true
		}
	}
	return false
}

// Load layers configuration from defaults, an optional yaml file, ODRLINT_
// environment variables and explicitly set flags, in increasing precedence.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"tolerances.float_epsilon":       def.Tolerances.FloatEpsilon,
		"tolerances.length_tolerance":    def.Tolerances.LengthTolerance,
		"tolerances.horizontal_gap":      def.Tolerances.HorizontalGap,
		"tolerances.overlap_sample_step": def.Tolerances.OverlapSampleStep,
		"workers":                        def.Workers,
		"verbose":                        false,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		for _, name := range []string{"odrlint.yaml", "odrlint.yml"} {
			if _, err := os.Stat(name); err == nil {
				cfgFile = name
				break
			}
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// ODRLINT_TOLERANCES_FLOAT_EPSILON -> tolerances.float_epsilon
	if err := k.Load(env.Provider("ODRLINT_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "ODRLINT_"))
		if rest, ok := strings.CutPrefix(key, "tolerances_"); ok {
			return "tolerances." + rest
		}
		return key
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
