package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of flags, env and config file.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "env" or "config"
}

// ParseCommandFlags parses command-line flags and records which were set.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: set}
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// applyEnv overlays DEXCHAT_* environment variables onto cfg and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false
	if v := os.Getenv("DEXCHAT_ADDR"); v != "" {
		cfg.Server.Address = v
		used = true
	}
	if v := os.Getenv("DEXCHAT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
			used = true
		}
	}
	if v := os.Getenv("DEXCHAT_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
		used = true
	}
	if v := os.Getenv("DEXCHAT_AUTH_SECRETS"); v != "" {
		cfg.Security.Auth.Secrets = parseList(v)
		used = true
	}
	if v := os.Getenv("DEXCHAT_CORS_ORIGINS"); v != "" {
		cfg.Security.CORS.AllowedOrigins = parseList(v)
		used = true
	}
	if v := os.Getenv("DEXCHAT_TOKEN_DELAY"); v != "" {
		cfg.Chat.TokenDelay = v
		used = true
	}
	if v := os.Getenv("DEXCHAT_TOOL_LATENCY"); v != "" {
		cfg.Chat.ToolLatency = v
		used = true
	}
	if v := os.Getenv("DEXCHAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
		used = true
	}
	return used
}

// LoadEffective loads the config file (when present), overlays env vars and
// applies explicit flags. Flags win over env, env wins over file.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfg := &Config{}
	source := "flags"
	if c, err := Load(flags.Config); err == nil {
		cfg = c
		source = "config"
	} else if !os.IsNotExist(err) {
		return EffectiveConfigResult{}, err
	}
	if applyEnv(cfg) {
		source = "env"
	}

	addr := cfg.Addr()
	if addr == "" || flags.Set["addr"] {
		addr = flags.Addr
	}
	dbPath := cfg.Server.DBPath
	if dbPath == "" || flags.Set["db"] {
		dbPath = flags.DB
	}
	if flags.Set["addr"] || flags.Set["db"] || flags.Set["config"] {
		source = "flags"
	}
	return EffectiveConfigResult{Config: cfg, Addr: addr, DBPath: dbPath, Source: source}, nil
}
