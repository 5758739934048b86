package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List active conversation sessions",
		Run:   runSessionsList,
	}
	sessionsCmd.Flags().IntP("limit", "l", 10, "Max results")

	closeCmd := &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsClose,
	}

	historyCmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show a session's conversation history",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsHistory,
	}
	historyCmd.Flags().IntP("limit", "l", 50, "Max messages")
	historyCmd.Flags().String("role", "", "Filter by role")

	clearCmd := &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Clear a session's conversation history",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsClear,
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old inactive sessions",
		Run:   runSessionsCleanup,
	}
	cleanupCmd.Flags().Int("days", 30, "Remove inactive sessions idle for this many days")

	sessionsCmd.AddCommand(closeCmd, historyCmd, clearCmd, cleanupCmd)
	RootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sessions, err := s.ActiveSessions(cmd.Context(), userFlag, limit)
	if err != nil {
		exitErr("sessions", err)
	}

	b, _ := json.MarshalIndent(sessions, "", "  ")
	fmt.Println(string(b))
}

func runSessionsClose(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.CloseSession(cmd.Context(), args[0], userFlag); err != nil {
		exitErr("close", err)
	}
	fmt.Printf(`{"ok":true,"session_id":%q}`+"\n", args[0])
}

func runSessionsHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	role, _ := cmd.Flags().GetString("role")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	messages, err := s.History(cmd.Context(), store.HistoryParams{
		SessionID:      args[0],
		UserIdentifier: userFlag,
		Role:           role,
		Limit:          limit,
	})
	if err != nil {
		exitErr("history", err)
	}

	b, _ := json.MarshalIndent(messages, "", "  ")
	fmt.Println(string(b))
}

func runSessionsClear(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ClearHistory(cmd.Context(), args[0], userFlag); err != nil {
		exitErr("clear", err)
	}
	fmt.Printf(`{"ok":true,"session_id":%q}`+"\n", args[0])
}

func runSessionsCleanup(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.CleanupSessions(cmd.Context(), userFlag, time.Duration(days)*24*time.Hour); err != nil {
		exitErr("cleanup", err)
	}
	fmt.Printf(`{"ok":true,"days":%d}`+"\n", days)
}
