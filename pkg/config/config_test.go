package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDelaysDefaults(t *testing.T) {
	var c ChatConfig
	tok, tool := c.Delays()
	if tok != 40*time.Millisecond || tool != time.Second {
		t.Fatalf("unexpected defaults: %v %v", tok, tool)
	}
}

func TestDelaysParsed(t *testing.T) {
	c := ChatConfig{TokenDelay: "5ms", ToolLatency: "250ms"}
	tok, tool := c.Delays()
	if tok != 5*time.Millisecond || tool != 250*time.Millisecond {
		t.Fatalf("unexpected parsed delays: %v %v", tok, tool)
	}
	// Malformed values fall back.
	c = ChatConfig{TokenDelay: "fast", ToolLatency: "-3s"}
	tok, tool = c.Delays()
	if tok != 40*time.Millisecond || tool != time.Second {
		t.Fatalf("malformed values must fall back: %v %v", tok, tool)
	}
}

func TestAddrComposition(t *testing.T) {
	cases := []struct {
		addr string
		port int
		want string
	}{
		{"", 9000, ":9000"},
		{"127.0.0.1", 9000, "127.0.0.1:9000"},
		{":8080", 0, ":8080"},
		{"", 0, ""},
	}
	for _, tc := range cases {
		c := Config{}
		c.Server.Address = tc.addr
		c.Server.Port = tc.port
		if got := c.Addr(); got != tc.want {
			t.Fatalf("Addr(%q,%d) = %q, want %q", tc.addr, tc.port, got, tc.want)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  address: "0.0.0.0"
  port: 9090
  db_path: "/data/dexchat"
security:
  auth:
    secrets: ["s1", "s2"]
  rate_limit:
    rps: 2
    burst: 4
chat:
  token_delay: "10ms"
retention:
  enabled: true
  cron: "0 3 * * *"
  period: "720h"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if len(cfg.Security.Auth.Secrets) != 2 || cfg.Security.Auth.Secrets[1] != "s2" {
		t.Fatalf("secrets = %v", cfg.Security.Auth.Secrets)
	}
	if !cfg.Retention.Enabled || cfg.Retention.Period != "720h" {
		t.Fatalf("retention = %+v", cfg.Retention)
	}
}

func TestLoadEffectivePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \":7000\"\n  db_path: \"/from/file\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Env overrides file.
	t.Setenv("DEXCHAT_DB_PATH", "/from/env")
	eff, err := LoadEffective(Flags{Addr: ":8080", DB: "./.database", Config: path, Set: map[string]bool{}})
	if err != nil {
		t.Fatalf("LoadEffective: %v", err)
	}
	if eff.DBPath != "/from/env" {
		t.Fatalf("env must win over file: %q", eff.DBPath)
	}
	if eff.Addr != ":7000" {
		t.Fatalf("file addr must survive when flag not set: %q", eff.Addr)
	}

	// Explicit flag overrides env.
	eff, err = LoadEffective(Flags{Addr: ":8080", DB: "/from/flag", Config: path, Set: map[string]bool{"db": true}})
	if err != nil {
		t.Fatalf("LoadEffective: %v", err)
	}
	if eff.DBPath != "/from/flag" {
		t.Fatalf("flag must win over env: %q", eff.DBPath)
	}
	if eff.Source != "flags" {
		t.Fatalf("source = %q", eff.Source)
	}
}

func TestRuntimeConfig(t *testing.T) {
	SetRuntime(&RuntimeConfig{AuthSecrets: []string{"a"}, RateRPS: 3, RateBurst: 6})
	if got := GetAuthSecrets(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("secrets = %v", got)
	}
	rps, burst := GetRateLimit()
	if rps != 3 || burst != 6 {
		t.Fatalf("rate = %v %v", rps, burst)
	}
	// Returned slice is a copy.
	GetAuthSecrets()[0] = "mutated"
	if got := GetAuthSecrets(); got[0] != "a" {
		t.Fatalf("secrets leaked a mutable reference: %v", got)
	}
}
