package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// FileName is the configuration file in a household directory.
const FileName = "kasboek.yaml"

// Environment overrides.
const (
	EnvLedgerPath    = "KASBOEK_LEDGER_PATH"
	EnvLogLevel      = "KASBOEK_LOG_LEVEL"
	EnvLogFormat     = "KASBOEK_LOG_FORMAT"
	EnvGitAutoCommit = "KASBOEK_GIT_AUTO_COMMIT"
)

// Config represents the top-level kasboek.yaml configuration.
type Config struct {
	Household HouseholdConfig `yaml:"household"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Invoice   InvoiceConfig   `yaml:"invoice"`
	Git       GitConfig       `yaml:"git"`
	Log       LogConfig       `yaml:"log"`
}

// HouseholdConfig identifies the household.
type HouseholdConfig struct {
	Name string `yaml:"name"`
}

// LedgerConfig locates the ledger file. The extension selects the backend.
type LedgerConfig struct {
	Path string `yaml:"path"` // relative to the household directory
}

// InvoiceConfig controls invoice generation.
type InvoiceConfig struct {
	Template     string         `yaml:"template"`
	OutputDir    string         `yaml:"output_dir"`
	VariousLabel string         `yaml:"various_label"`
	IntroText    string         `yaml:"intro_text"`
	Currency     CurrencyConfig `yaml:"currency"`
}

// CurrencyConfig controls how amounts are printed on invoices.
type CurrencyConfig struct {
	Symbol           string `yaml:"symbol"`
	DecimalSeparator string `yaml:"decimal_separator"`
	GroupSeparator   string `yaml:"group_separator"`
	SymbolAfter      bool   `yaml:"symbol_after"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a kasboek.yaml file from disk, then applies a .env file next
// to it (if any) and KASBOEK_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLedgerPath); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvGitAutoCommit); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvGitAutoCommit, err)
		}
		c.Git.AutoCommit = b
	}
	return nil
}

// Validate checks settings the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Ledger.Path == "" {
		return errors.New("config: ledger.path is empty")
	}
	if !ledger.ValidName(c.Invoice.VariousLabel) {
		return fmt.Errorf("config: invoice.various_label %q must be letters and spaces only", c.Invoice.VariousLabel)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new household.
func Default(householdName string) *Config {
	return &Config{
		Household: HouseholdConfig{
			Name: householdName,
		},
		Ledger: LedgerConfig{
			Path: "ledger.json",
		},
		Invoice: InvoiceConfig{
			Template:     filepath.Join("templates", "invoice.html"),
			OutputDir:    "invoices",
			VariousLabel: "Various",
			IntroText:    "Statement for the period ${start_date} until ${end_date}.",
			Currency: CurrencyConfig{
				Symbol:           "€",
				DecimalSeparator: ",",
				GroupSeparator:   ".",
				SymbolAfter:      true,
			},
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Kasboek",
			AuthorEmail: "kasboek@localhost",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve returns p relative to the household directory dir, unless p is absolute.
func Resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
