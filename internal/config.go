package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tasksort/internal/rewrite"
	"github.com/starford/tasksort/internal/sorting"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Sort   SortConfig        `yaml:"sort"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Sort.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SortConfig holds the defaults applied to sort requests that leave an
// option unset. The interactive CLI asks for fields and headings instead.
type SortConfig struct {
	Fields         []string     `yaml:"fields"`
	IncludeHeading bool         `yaml:"include_heading"`
	Subheadings    bool         `yaml:"subheadings"`
	Separator      bool         `yaml:"separator"`
	HeadingLevel   int          `yaml:"heading_level"`
	Backup         BackupConfig `yaml:"backup"`
}

// Validate validates the sort configuration.
func (c *SortConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Fields, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.HeadingLevel, validation.Required, validation.Min(1), validation.Max(5)),
	); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	if len(sorting.ParseKeys(c.Fields)) != len(c.Fields) {
		return fmt.Errorf("sort: fields %v contain an empty selector", c.Fields)
	}
	return c.Backup.Validate()
}

// Options converts the defaults into rewrite options.
func (c *SortConfig) Options() rewrite.Options {
	heading, sub := c.IncludeHeading, c.Subheadings
	return rewrite.Options{
		Fields:         append([]string(nil), c.Fields...),
		IncludeHeading: &heading,
		Subheadings:    &sub,
		Separator:      c.Separator,
		HeadingLevel:   c.HeadingLevel,
		Backup: rewrite.BackupOptions{
			Enabled:  c.Backup.Enabled,
			Title:    c.Backup.Title,
			Folder:   c.Backup.Folder,
			Attempts: c.Backup.Attempts,
			Backoff:  c.Backup.Backoff,
		},
	}
}

// BackupConfig controls the note that receives a copy of every task moved by
// a sort.
type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Title    string        `yaml:"title"`
	Folder   string        `yaml:"folder"`
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// Validate validates the backup configuration. Title and retry settings are
// only required while backups are enabled.
func (c *BackupConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Attempts, validation.When(c.Enabled, validation.Required, validation.Min(1), validation.Max(10))),
		validation.Field(&c.Backoff, validation.Min(time.Duration(0)), validation.Max(10*time.Second)),
	)
	if err != nil {
		return fmt.Errorf("sort.backup: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./tasksort.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Sort: SortConfig{
			Fields:       []string{"-priority", "content"},
			HeadingLevel: 3,
			Backup: BackupConfig{
				Enabled:  true,
				Title:    "Sort Backup",
				Folder:   "tasksort",
				Attempts: 5,
				Backoff:  100 * time.Millisecond,
			},
		},
	}
}
