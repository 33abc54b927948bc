// Package config handles the thebib configuration file and its environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/francescoalemanno/latex-thebib/internal/refactor"
)

// Config represents configuration stored in ~/.config/thebib/config.yml.
type Config struct {
	Threshold   float64  `yaml:"threshold" json:"threshold"`
	Subdir      string   `yaml:"subdir" json:"subdir"`
	SkipMissing bool     `yaml:"skip_missing" json:"skip_missing"`
	Extensions  []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	LibraryDir  string   `yaml:"library_dir,omitempty" json:"library_dir,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "thebib"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DataDir is the directory name under XDG_DATA_HOME.
	DataDir = "thebib"
)

// Environment variables that override the config file.
const (
	EnvThreshold  = "THEBIB_THRESHOLD"
	EnvSubdir     = "THEBIB_SUBDIR"
	EnvLibraryDir = "THEBIB_LIBRARY_DIR"
)

// MaxThreshold is the largest meaningful normalized edit distance.
const MaxThreshold = 2.0

var (
	// ErrInvalidThreshold is returned for a threshold outside [0, MaxThreshold].
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrInvalidSubdir is returned for an output subdirectory that is empty or
	// not a single relative path.
	ErrInvalidSubdir = errors.New("invalid subdir")
	// ErrInvalidExtension is returned for an include extension that is neither
	// empty nor starts with a dot.
	ErrInvalidExtension = errors.New("invalid extension")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Threshold: refactor.DefaultThreshold,
		Subdir:    refactor.DefaultSubdir,
	}
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/thebib/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultLibraryDir returns the library location used when library_dir is
// not configured.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/thebib.
func DefaultLibraryDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, DataDir)
}

// Load reads the config file at Path, then applies environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and validates a config file.
// Returns the default config (not an error) if the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.LibraryDir = ExpandPath(cfg.LibraryDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from THEBIB_* variables looked up with getenv.
// Unset or empty variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvThreshold)); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvThreshold, v, ErrInvalidThreshold)
		}
		c.Threshold = t
	}
	if v := strings.TrimSpace(getenv(EnvSubdir)); v != "" {
		c.Subdir = v
	}
	if v := strings.TrimSpace(getenv(EnvLibraryDir)); v != "" {
		c.LibraryDir = ExpandPath(v)
	}
	return c.Validate()
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := ValidateThreshold(c.Threshold); err != nil {
		return err
	}
	if err := ValidateSubdir(c.Subdir); err != nil {
		return err
	}
	for _, ext := range c.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q (must be empty or start with \".\")", ErrInvalidExtension, ext)
		}
	}
	return nil
}

// ValidateThreshold checks that t is a usable clustering cutoff.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > MaxThreshold {
		return fmt.Errorf("%w: %v (must be between 0 and %v)", ErrInvalidThreshold, t, MaxThreshold)
	}
	return nil
}

// ValidateSubdir checks that s names a single relative directory.
func ValidateSubdir(s string) error {
	if s == "" || s == "." || s == ".." || filepath.IsAbs(s) || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %q (must be a single directory name)", ErrInvalidSubdir, s)
	}
	return nil
}

// Library returns the effective library directory.
func (c *Config) Library() string {
	if c.LibraryDir != "" {
		return c.LibraryDir
	}
	return DefaultLibraryDir()
}

// IncludeExtensions returns the configured include extensions, or the
// default list when none are set.
func (c *Config) IncludeExtensions() []string {
	if len(c.Extensions) == 0 {
		return refactor.DefaultExtensions
	}
	return c.Extensions
}

// RefactorOptions builds refactor options from the config.
func (c *Config) RefactorOptions() refactor.Options {
	return refactor.Options{
		Threshold:   c.Threshold,
		Subdir:      c.Subdir,
		Extensions:  c.IncludeExtensions(),
		SkipMissing: c.SkipMissing,
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
