package app

import (
	"fmt"
	"os"
	"time"

	"dexchat/pkg/config"
	"dexchat/pkg/logger"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, DEXCHAT_DB_PATH env, or server.db_path in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if len(eff.Config.Security.Auth.Secrets) == 0 {
		// The server still starts so local tooling works, but every
		// authenticated route will reject requests.
		logger.Warn("no_auth_secrets_configured")
	}

	if ret := eff.Config.Retention; ret.Enabled {
		if ret.Period == "" {
			return fmt.Errorf("retention enabled but retention.period is empty")
		}
		if d, err := time.ParseDuration(ret.Period); err != nil || d <= 0 {
			return fmt.Errorf("invalid retention.period: %q", ret.Period)
		}
	}

	return nil
}
