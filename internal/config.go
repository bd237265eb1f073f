package internal

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/storage"
	"github.com/starford/chordsheet/internal/transpose"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Library LibraryConfig     `yaml:"library"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Render  RenderConfig      `yaml:"render"`
	PCloud  PCloudConfig      `yaml:"pcloud"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.PCloud.Validate()
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

// LibraryConfig points at the directory of song files.
type LibraryConfig struct {
	Path      string `yaml:"path"`
	Extension string `yaml:"extension"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	if c.Extension == "" {
		c.Extension = storage.DefaultExtension
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extension, validation.By(func(any) error {
			if !strings.HasPrefix(c.Extension, ".") || strings.ContainsAny(c.Extension, `/\`) {
				return fmt.Errorf("must look like %q", storage.DefaultExtension)
			}
			return nil
		})),
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

// RenderConfig holds the rendering defaults: the notation used for songs
// without a preference and the style used until one is saved.
type RenderConfig struct {
	DefaultNotation string      `yaml:"default_notation"`
	Style           chart.Style `yaml:"style"`
}

// Notation returns the parsed default notation. Call after Validate.
func (c *RenderConfig) Notation() transpose.Notation {
	n, _ := transpose.ParseNotation(c.DefaultNotation)
	return n
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	if _, err := transpose.ParseNotation(c.DefaultNotation); err != nil {
		return fmt.Errorf("render: default_notation: %w", err)
	}
	if err := c.Style.Validate(); err != nil {
		return fmt.Errorf("render: style: %w", err)
	}
	return nil
}

// PCloudConfig holds the cloud sync account. Credentials are only required
// when sync is enabled.
type PCloudConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Folder      string `yaml:"folder"`
	APIHost     string `yaml:"api_host"`
	Concurrency int    `yaml:"concurrency"`
}

// Validate validates the pCloud configuration.
func (c *PCloudConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.Folder, validation.Required),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(32)),
	)
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
		Library: LibraryConfig{
			Path:      "./songs",
			Extension: storage.DefaultExtension,
		},
		SQLite: SQLiteConfig{
			Path: "./chordsheet.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Render: RenderConfig{
			Style: chart.DefaultStyle(),
		},
		PCloud: PCloudConfig{
			Folder:      "SongChords",
			Concurrency: 4,
		},
	}
}
