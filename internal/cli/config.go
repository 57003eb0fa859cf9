package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDatabase is the record database path used when neither the --db
// flag nor a config file names one.
const DefaultDatabase = "bundler.db"

// Config holds file-backed settings. Flags override file values; file values
// override defaults.
type Config struct {
	// Database is the path to the SQLite record database.
	Database string `yaml:"database"`

	// Authority is the label of the acting authority.
	Authority string `yaml:"authority"`

	// MaxComputeUnits is the default execution budget when the execute
	// command is run without --max-compute-units.
	MaxComputeUnits uint32 `yaml:"max_compute_units"`

	// BundleCapacity and FeeMultiplier seed the init command when its
	// flags are not given.
	BundleCapacity uint8 `yaml:"bundle_capacity"`
	FeeMultiplier  uint8 `yaml:"fee_multiplier"`
}

// LoadConfig reads a YAML config file. A missing file at the default path is
// not an error; a missing file named explicitly is.
func LoadConfig(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &Config{}, nil
		}
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("reading config %s", path), err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parsing config %s", path), err)
	}
	return cfg, nil
}

// ResolveConfig loads the config file (if any) and applies flag overrides,
// producing the effective settings for this invocation.
func ResolveConfig(opts *RootOptions) (*Config, error) {
	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		path = "bundler.yaml"
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if opts.Authority != "" {
		cfg.Authority = opts.Authority
	}
	return cfg, nil
}
