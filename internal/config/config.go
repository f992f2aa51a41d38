// Package config loads synthscan settings from the global config file,
// the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/synthscan/internal/logging"
	"github.com/matsen/synthscan/internal/pdf"
)

// Config represents configuration stored in ~/.config/synthscan/config.yml.
type Config struct {
	PDFFolder   string        `yaml:"pdf_folder,omitempty" json:"pdf_folder"`
	PDFViewer   string        `yaml:"pdf_viewer,omitempty" json:"pdf_viewer,omitempty"`
	CSV         string        `yaml:"csv,omitempty" json:"csv"`
	JSONL       string        `yaml:"jsonl,omitempty" json:"jsonl,omitempty"`
	DB          string        `yaml:"db,omitempty" json:"db,omitempty"`
	MetricsFile string        `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
	MaxPages    int           `yaml:"max_pages,omitempty" json:"max_pages"`
	Workers     int           `yaml:"workers,omitempty" json:"workers"`
	LogLevel    string        `yaml:"log_level,omitempty" json:"log_level"`
	LogFormat   string        `yaml:"log_format,omitempty" json:"log_format"`
	WatchSettle time.Duration `yaml:"watch_settle,omitempty" json:"watch_settle"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "synthscan"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// DefaultCSV is the report written when no path is configured.
	DefaultCSV = "czts_parameter_report.csv"
	// DefaultMaxPages is the leading page window read from each PDF.
	DefaultMaxPages = pdf.DefaultMaxPages
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// Environment variables that override the config file.
const (
	EnvPDFFolder = "SYNTHSCAN_PDF_FOLDER"
	EnvMaxPages  = "SYNTHSCAN_MAX_PAGES"
	EnvWorkers   = "SYNTHSCAN_WORKERS"
	EnvLogLevel  = "SYNTHSCAN_LOG_LEVEL"
)

// ErrFolderNotSet is returned when no PDF folder is given or configured.
var ErrFolderNotSet = errors.New("pdf_folder not configured")

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		CSV:      DefaultCSV,
		MaxPages: DefaultMaxPages,
		LogLevel: DefaultLogLevel,
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/synthscan/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. An empty path uses GlobalConfigPath. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GlobalConfigPath()
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.PDFFolder = ExpandPath(cfg.PDFFolder)
	cfg.CSV = ExpandPath(cfg.CSV)
	cfg.JSONL = ExpandPath(cfg.JSONL)
	cfg.DB = ExpandPath(cfg.DB)
	cfg.MetricsFile = ExpandPath(cfg.MetricsFile)

	return cfg, nil
}

// applyEnv overrides file values with SYNTHSCAN_* variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPDFFolder); v != "" {
		c.PDFFolder = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMaxPages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxPages, err)
		}
		c.MaxPages = n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks value ranges. A zero worker count means one per CPU.
func (c *Config) Validate() error {
	if c.MaxPages < 0 {
		return fmt.Errorf("invalid max_pages: %d (must be >= 0)", c.MaxPages)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must be >= 0)", c.Workers)
	}
	if c.WatchSettle < 0 {
		return fmt.Errorf("invalid watch_settle: %s (must be >= 0)", c.WatchSettle)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := pdf.ValidateViewer(c.PDFViewer); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log_format: %s (valid: %s, %s)", c.LogFormat, logging.FormatConsole, logging.FormatJSON)
	}
	return nil
}

// ResolveFolder picks the folder to scan: the argument if given, else the
// configured pdf_folder. The result must be an existing directory.
func (c *Config) ResolveFolder(arg string) (string, error) {
	folder := ExpandPath(arg)
	if folder == "" {
		folder = c.PDFFolder
	}
	if folder == "" {
		return "", ErrFolderNotSet
	}
	if err := ValidatePDFFolder(folder); err != nil {
		return "", err
	}
	return folder, nil
}

// ValidatePDFFolder checks that the folder exists and is a directory.
func ValidatePDFFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage explains how to set a default folder.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No PDF folder given.

Tip: pass a folder, set %s, or create %s:
  mkdir -p %s
  echo 'pdf_folder: /path/to/papers' > %s`,
		EnvPDFFolder,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
