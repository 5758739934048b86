package cli

import (
	"fmt"
	"strings"

	"github.com/hazoom/assistant-memory/internal/backend"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one chat turn through the memory pipeline",
		Long:  "Observe the message for memories, assemble context, and stream the generator's reply to stdout. Requires a running Ollama instance.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runChat,
	}

	cmd.Flags().StringP("session", "s", "default_session", "Session id")
	cmd.Flags().StringP("level", "l", "super", "Intelligence level: nano, standard, super, quantum")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	levelStr, _ := cmd.Flags().GetString("level")

	level, err := backend.ParseLevel(levelStr)
	if err != nil {
		exitErr("chat", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	registry := backend.NewRegistry(s, backend.NewOllamaGenerator())
	b := registry.GetBackend(cmd.Context(), userFlag, session)
	b.SetLevel(cmd.Context(), level)

	err = b.ChatStream(cmd.Context(), strings.Join(args, " "), func(chunk string) error {
		fmt.Print(chunk)
		return nil
	})
	if err != nil {
		exitErr("chat", err)
	}
	fmt.Println()
}
