package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Chat      ChatConfig      `yaml:"chat"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds listen address, storage path and TLS settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds auth, CORS and rate limit settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Auth struct {
		// Secrets are the accepted HS256 signing secrets for bearer
		// tokens; any one of them validates a token.
		Secrets []string `yaml:"secrets"`
	} `yaml:"auth"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChatConfig paces the streaming turn. Durations are Go duration strings.
type ChatConfig struct {
	TokenDelay  string `yaml:"token_delay"`
	ToolLatency string `yaml:"tool_latency"`
}

// RetentionConfig drives the automatic session purge runner.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Period  string `yaml:"period"`
}

const (
	defaultTokenDelay  = 40 * time.Millisecond
	defaultToolLatency = 1 * time.Second
)

// Delays returns the parsed pacing durations, falling back to the defaults
// when a value is unset or malformed.
func (c ChatConfig) Delays() (tokenDelay, toolLatency time.Duration) {
	tokenDelay = defaultTokenDelay
	toolLatency = defaultToolLatency
	if d, err := time.ParseDuration(c.TokenDelay); err == nil && d >= 0 {
		tokenDelay = d
	}
	if d, err := time.ParseDuration(c.ToolLatency); err == nil && d >= 0 {
		toolLatency = d
	}
	return tokenDelay, toolLatency
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Addr returns the effective listen address from address/port fields.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" && c.Server.Port != 0 {
		return fmt.Sprintf(":%d", c.Server.Port)
	}
	if addr != "" && c.Server.Port != 0 {
		return fmt.Sprintf("%s:%d", addr, c.Server.Port)
	}
	return addr
}

// RuntimeConfig holds derived runtime values other packages query while the
// server runs (populated during startup after merging env+file+flags).
type RuntimeConfig struct {
	AuthSecrets []string
	RateRPS     float64
	RateBurst   int
}

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the canonical runtime config used by the running server.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// GetAuthSecrets returns a copy of the configured bearer-token secrets.
func GetAuthSecrets() []string {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeCfg == nil {
		return nil
	}
	return append([]string(nil), runtimeCfg.AuthSecrets...)
}

// GetRateLimit returns the configured streaming rate limit.
func GetRateLimit() (rps float64, burst int) {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeCfg == nil {
		return 0, 0
	}
	return runtimeCfg.RateRPS, runtimeCfg.RateBurst
}
