// Package banner prints the startup banner with the effective runtime
// configuration and a short endpoint cheat sheet.
package banner

import (
	"fmt"

	"dexchat/pkg/config"
)

const banner = `
██████╗ ███████╗██╗  ██╗ ██████╗██╗  ██╗ █████╗ ████████╗
██╔══██╗██╔════╝╚██╗██╔╝██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██║  ██║█████╗   ╚███╔╝ ██║     ███████║███████║   ██║
██║  ██║██╔══╝   ██╔██╗ ██║     ██╔══██║██╔══██║   ██║
██████╔╝███████╗██╔╝ ██╗╚██████╗██║  ██║██║  ██║   ██║
╚═════╝ ╚══════╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// PrintWithEff prints the banner using an EffectiveConfigResult which
// provides the merged config, listen address, db path and config source.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config source: %s\n", src)
	if eff.Config != nil {
		if ret := eff.Config.Retention; ret.Enabled {
			fmt.Printf("Retention: cron %q, period %s\n", ret.Cron, ret.Period)
		}
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /v1/chats/sessions/{id}/stream - Run a streaming turn (SSE)")
	fmt.Println("GET    /v1/chats/sessions             - List your sessions")
	fmt.Println("GET    /v1/chats/messages?sessionId=  - List a session's messages")
	fmt.Println("DELETE /v1/chats/sessions/{id}        - Delete a session")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -N -X POST 'http://localhost%s/v1/chats/sessions/s1/stream' \\\n", addr)
	fmt.Println("  -H 'Authorization: Bearer <jwt>' -d '{\"message\": \"I want to swap tokens\"}'")
}
