package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. SPECTRASCOUT_SERVER_TRANSPORT.
const EnvPrefix = "SPECTRASCOUT"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig        `mapstructure:"server" yaml:"server"`
	Sandbox   SandboxConfig       `mapstructure:"sandbox" yaml:"sandbox"`
	Logging   LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Languages map[string]Language `mapstructure:"languages" yaml:"languages"`
	Model     ModelConfig         `mapstructure:"model" yaml:"model"`
	GitHub    GitHubConfig        `mapstructure:"github" yaml:"github"`
	Session   SessionConfig       `mapstructure:"session" yaml:"session"`
	Chat      ChatConfig          `mapstructure:"chat" yaml:"chat"`
}

// ServerConfig holds MCP tool server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	HTTPPort  int    `mapstructure:"http_port" yaml:"http_port"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Backend            string  `mapstructure:"backend" yaml:"backend"`
	TimeoutSec         int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	MemoryMB           int     `mapstructure:"memory_mb" yaml:"memory_mb"`
	CPULimit           float64 `mapstructure:"cpu_limit" yaml:"cpu_limit"`
	PoolSize           int     `mapstructure:"pool_size" yaml:"pool_size"`
	NetworkEnabled     bool    `mapstructure:"network_enabled" yaml:"network_enabled"`
	EnableLocalBackend bool    `mapstructure:"enable_local_backend" yaml:"enable_local_backend"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Language holds the runtime settings of one supported language.
type Language struct {
	Image       string   `mapstructure:"image" yaml:"image"`
	FileName    string   `mapstructure:"file_name" yaml:"file_name"`
	Command     []string `mapstructure:"command" yaml:"command"`
	Env         []string `mapstructure:"env" yaml:"env"` // KEY=VALUE pairs; viper lowercases map keys
	PrefixCode  string   `mapstructure:"prefix_code" yaml:"prefix_code"`
	PostfixCode string   `mapstructure:"postfix_code" yaml:"postfix_code"`
}

// ModelConfig holds the LLM settings of the assistant.
type ModelConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	APIKey   string `mapstructure:"api_key" yaml:"-"`
	MaxSteps int    `mapstructure:"max_steps" yaml:"max_steps"`
}

// GitHubConfig holds the GitHub MCP endpoint settings.
type GitHubConfig struct {
	MCPURL         string   `mapstructure:"mcp_url" yaml:"mcp_url"`
	AuthToken      string   `mapstructure:"auth_token" yaml:"-"`
	ReadTimeoutSec int      `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	IncludeTools   []string `mapstructure:"include_tools" yaml:"include_tools"`
}

// SessionConfig selects the conversation store.
type SessionConfig struct {
	Store string `mapstructure:"store" yaml:"store"`
	DSN   string `mapstructure:"dsn" yaml:"dsn"`
}

// ChatConfig selects how the assistant binary talks to users.
type ChatConfig struct {
	Mode     string `mapstructure:"mode" yaml:"mode"`
	HTTPPort int    `mapstructure:"http_port" yaml:"http_port"`
	AppName  string `mapstructure:"app_name" yaml:"app_name"`
}

// New loads and validates the application configuration from ./config.yaml
// or ./config/config.yaml, after loading ./.env into the process environment.
func New() (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}
	return Load(".", "./config")
}

// Load reads config.yaml from the first matching search path. A missing file
// is not an error; defaults and environment overrides still apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional variable names used by the upstream services.
	_ = v.BindEnv("github.auth_token", EnvPrefix+"_GITHUB_AUTH_TOKEN", "GITHUB_AUTH_TOKEN")
	_ = v.BindEnv("model.api_key", EnvPrefix+"_MODEL_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("sandbox.backend", "docker")
	v.SetDefault("sandbox.timeout_sec", 10)
	v.SetDefault("sandbox.memory_mb", 256)
	v.SetDefault("sandbox.cpu_limit", 0.5)
	v.SetDefault("sandbox.pool_size", 2)
	v.SetDefault("sandbox.network_enabled", false)
	v.SetDefault("sandbox.enable_local_backend", false)

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")

	for name, lang := range DefaultLanguages() {
		v.SetDefault("languages."+name+".image", lang.Image)
		v.SetDefault("languages."+name+".file_name", lang.FileName)
		v.SetDefault("languages."+name+".command", lang.Command)
		v.SetDefault("languages."+name+".env", lang.Env)
		v.SetDefault("languages."+name+".prefix_code", lang.PrefixCode)
		v.SetDefault("languages."+name+".postfix_code", lang.PostfixCode)
	}

	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.max_steps", 10)

	v.SetDefault("github.mcp_url", "https://api.githubcopilot.com/mcp/")
	v.SetDefault("github.read_timeout_sec", 10)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.dsn", "spectrascout.db")

	v.SetDefault("chat.mode", "repl")
	v.SetDefault("chat.http_port", 8081)
	v.SetDefault("chat.app_name", "spectrascout")
}

// DefaultLanguages returns the built-in runtime settings for python and go.
func DefaultLanguages() map[string]Language {
	return map[string]Language{
		"python": {
			Image:    "python:3.12-slim",
			FileName: "main.py",
			Command:  []string{"python3", "-I", "main.py"},
			Env:      []string{"PYTHONDONTWRITEBYTECODE=1", "PYTHONUNBUFFERED=1"},
		},
		"go": {
			Image:    "golang:1.25-alpine",
			FileName: "main.go",
			Command:  []string{"go", "run", "main.go"},
			Env:      []string{"GOCACHE=/tmp/gocache", "HOME=/tmp"},
		},
	}
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	supportedBackends := map[string]bool{
		"docker":    true,
		"podman":    true,
		"dockerapi": true,
		"local":     c.Sandbox.EnableLocalBackend, // local only enabled if specifically allowed
	}

	if !supportedBackends[c.Sandbox.Backend] {
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	if c.Sandbox.Backend == "dockerapi" && c.Sandbox.PoolSize <= 0 {
		return fmt.Errorf("sandbox.pool_size must be positive for dockerapi, got: %d", c.Sandbox.PoolSize)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	for name, lang := range c.Languages {
		if len(lang.Command) == 0 {
			return fmt.Errorf("languages.%s.command must not be empty", name)
		}
		if lang.FileName == "" || strings.ContainsAny(lang.FileName, `/\`) {
			return fmt.Errorf("languages.%s.file_name must be a plain file name, got: %q", name, lang.FileName)
		}
	}

	if c.Session.Store != "memory" && c.Session.Store != "sqlite" {
		return fmt.Errorf("invalid session.store: %s, must be 'memory' or 'sqlite'", c.Session.Store)
	}

	if c.Chat.Mode != "repl" && c.Chat.Mode != "http" {
		return fmt.Errorf("invalid chat.mode: %s, must be 'repl' or 'http'", c.Chat.Mode)
	}

	return nil
}

// GitHubReadTimeout returns the MCP read timeout as a duration
func (c *Config) GitHubReadTimeout() time.Duration {
	return time.Duration(c.GitHub.ReadTimeoutSec) * time.Second
}

// GitHubEnabled reports whether the GitHub MCP toolset should be connected.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.MCPURL != "" && c.GitHub.AuthToken != ""
}

// WriteYAML renders the effective configuration as a config.yaml document.
// Secrets are omitted.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return enc.Close()
}
