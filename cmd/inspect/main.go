// Offline store inspector. Opens a dexchat database directly and dumps
// session summaries, or the full message list of one session. Run it only
// against a stopped server; pebble takes an exclusive lock.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"dexchat/pkg/logger"
	"dexchat/pkg/store"
)

func main() {
	var dbPath, sessionID string
	flag.StringVar(&dbPath, "db", "", "path to the pebble database")
	flag.StringVar(&sessionID, "session", "", "dump messages of this session instead of summaries")
	flag.Parse()
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}

	logger.Init()
	if err := store.Open(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if sessionID != "" {
		msgs, err := store.ListMessages(sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list messages failed: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(msgs)
		return
	}

	ids, err := store.ListSessionIDs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list sessions failed: %v\n", err)
		os.Exit(1)
	}
	for _, id := range ids {
		sum, err := store.GetSession(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "session %s: %v\n", id, err)
			continue
		}
		_ = enc.Encode(sum)
	}
}
