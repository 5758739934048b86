// Package cli implements the assistant-memory CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	userFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "assistant-memory",
	Short: "Conversational memory for an AI assistant",
	Long:  "Persistent conversational memory: pattern-based extraction, scored storage, and bounded context assembly. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ASSISTANT_MEMORY_DB or ~/.assistant-memory/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "anonymous", "User identifier")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("ASSISTANT_MEMORY_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".assistant-memory", "memory.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
