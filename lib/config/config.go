// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Wildcard in terminal.allowed_commands disables the allow-list.
const Wildcard = "*"

// Config is the master configuration for the relay.
type Config struct {
	// Bot configures the command router.
	Bot BotConfig `yaml:"bot"`

	// Matrix configures the homeserver connection.
	Matrix MatrixConfig `yaml:"matrix"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Terminal configures the interactive terminal sessions.
	Terminal TerminalConfig `yaml:"terminal"`

	// State configures on-disk runtime state.
	State StateConfig `yaml:"state"`
}

// BotConfig configures the command router.
type BotConfig struct {
	// Name is shown in the help text.
	Name string `yaml:"name"`

	// Prefix marks a message as a bot command. Messages without it
	// are terminal input when a session is active.
	Prefix string `yaml:"prefix"`

	// Silent deletes command messages instead of replying to them.
	Silent bool `yaml:"silent"`

	// Owners lists the Matrix user IDs allowed to drive the relay.
	// Empty means only the relay's own account.
	Owners []string `yaml:"owners"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// HomeserverURL is the base URL, e.g. https://matrix.example.org.
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the relay account, e.g. @pi:example.org.
	UserID string `yaml:"user_id"`

	// TokenFile holds the access token as a TOKEN=... line or a bare
	// token. Age ciphertext when IdentityFile is set.
	TokenFile string `yaml:"token_file"`

	// IdentityFile is an age identity file used to decrypt TokenFile.
	IdentityFile string `yaml:"identity_file"`

	// Rooms limits the watched rooms. Empty watches every joined room.
	Rooms []string `yaml:"rooms"`

	// SyncTimeout is the /sync long-poll duration.
	// Default: 30s
	SyncTimeout string `yaml:"sync_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`

	// File, when set, receives log output. Truncated at startup.
	File string `yaml:"file"`

	// Console sends log output to stderr.
	Console bool `yaml:"console"`
}

// TerminalConfig configures interactive terminal sessions.
type TerminalConfig struct {
	// Enabled registers the ssh app with the router.
	Enabled bool `yaml:"enabled"`

	// ConfigFile is an optional JSONC overlay for Timeout and
	// AllowedCommands.
	ConfigFile string `yaml:"config_file"`

	// Timeout is the per-command wall-clock limit in seconds.
	// Default: 30
	Timeout int `yaml:"timeout"`

	// AllowedCommands lists the permitted first tokens. Empty or
	// containing "*" means unrestricted.
	AllowedCommands []string `yaml:"allowed_commands"`

	// Shell runs each command line as "<shell> -c <line>", resolved
	// via PATH. Default: sh
	Shell string `yaml:"shell"`

	// MaxOutputBytes bounds the rendered output of one command; the
	// tail is kept. Zero disables the bound. Default: 16384
	MaxOutputBytes int `yaml:"max_output_bytes"`
}

// StateConfig configures on-disk runtime state.
type StateConfig struct {
	// SyncPath stores the last sync position. Empty disables
	// persistence.
	SyncPath string `yaml:"sync_path"`
}

// terminalOverlay is the shape of terminal.config_file. Pointer
// fields distinguish absent from zero.
type terminalOverlay struct {
	Timeout         *int      `json:"timeout"`
	AllowedCommands *[]string `json:"allowed_commands"`
}

// Default returns the configuration every file is merged onto.
func Default() *Config {
	return &Config{
		Bot: BotConfig{
			Name:   "PiCord",
			Prefix: "!",
		},
		Matrix: MatrixConfig{
			TokenFile:   ".env",
			SyncTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Console: true,
		},
		Terminal: TerminalConfig{
			Enabled:         true,
			Timeout:         30,
			AllowedCommands: []string{Wildcard},
			Shell:           "sh",
			MaxOutputBytes:  16384,
		},
		State: StateConfig{
			SyncPath: "${HOME}/.local/state/picord/sync.cbor",
		},
	}
}

// Load loads the file named by PICORD_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("PICORD_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("PICORD_CONFIG environment variable not set; " +
			"set it to the path of your picord.yaml, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads the YAML file at path over Default, expands path
// variables, applies the terminal overlay and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if cfg.Terminal.ConfigFile != "" {
		if err := cfg.applyTerminalOverlay(cfg.Terminal.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyTerminalOverlay merges the JSONC overlay at path into the
// terminal section.
func (c *Config) applyTerminalOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: terminal overlay: %w", err)
	}

	var overlay terminalOverlay
	if err := json.Unmarshal(jsonc.ToJSON(data), &overlay); err != nil {
		return fmt.Errorf("config: parsing terminal overlay %s: %w", path, err)
	}
	if overlay.Timeout != nil {
		c.Terminal.Timeout = *overlay.Timeout
	}
	if overlay.AllowedCommands != nil {
		c.Terminal.AllowedCommands = *overlay.AllowedCommands
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Matrix.TokenFile = expandVars(c.Matrix.TokenFile)
	c.Matrix.IdentityFile = expandVars(c.Matrix.IdentityFile)
	c.Logging.File = expandVars(c.Logging.File)
	c.Terminal.ConfigFile = expandVars(c.Terminal.ConfigFile)
	c.State.SyncPath = expandVars(c.State.SyncPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Bot.Prefix == "" {
		errs = append(errs, errors.New("bot.prefix is required"))
	}
	for _, owner := range c.Bot.Owners {
		if !strings.HasPrefix(owner, "@") || !strings.Contains(owner, ":") {
			errs = append(errs, fmt.Errorf("bot.owners: %q is not a Matrix user ID", owner))
		}
	}

	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, errors.New("matrix.homeserver_url is required"))
	}
	if !strings.HasPrefix(c.Matrix.UserID, "@") || !strings.Contains(c.Matrix.UserID, ":") {
		errs = append(errs, fmt.Errorf("matrix.user_id: %q is not a Matrix user ID", c.Matrix.UserID))
	}
	if c.Matrix.TokenFile == "" {
		errs = append(errs, errors.New("matrix.token_file is required"))
	}
	if _, err := c.SyncTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("matrix.sync_timeout: %w", err))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if c.Terminal.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("terminal.timeout must be positive, got %d", c.Terminal.Timeout))
	}
	if c.Terminal.Shell == "" {
		errs = append(errs, errors.New("terminal.shell is required"))
	}
	if c.Terminal.MaxOutputBytes < 0 {
		errs = append(errs, fmt.Errorf("terminal.max_output_bytes must not be negative, got %d", c.Terminal.MaxOutputBytes))
	}
	for _, command := range c.Terminal.AllowedCommands {
		if command == "" || strings.ContainsAny(command, " \t\n") {
			errs = append(errs, fmt.Errorf("terminal.allowed_commands: %q is not a single token", command))
		}
	}

	return errors.Join(errs...)
}

// SyncTimeout parses Matrix.SyncTimeout.
func (c *Config) SyncTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Matrix.SyncTimeout)
	if err != nil {
		return 0, err
	}
	if timeout < 0 {
		return 0, fmt.Errorf("negative duration %s", timeout)
	}
	return timeout, nil
}

// CommandTimeout returns Terminal.Timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Terminal.Timeout) * time.Second
}

// BotOwners returns the configured owners, or the relay account when
// none are configured.
func (c *Config) BotOwners() []string {
	if len(c.Bot.Owners) > 0 {
		return c.Bot.Owners
	}
	return []string{c.Matrix.UserID}
}
