package cli

import (
	"fmt"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Assemble the generator context block",
		Run:   runContext,
	}

	cmd.Flags().StringP("session", "s", "default_session", "Session id")
	cmd.Flags().Bool("no-memories", false, "Skip the memory section")
	cmd.Flags().Bool("no-knowledge", false, "Skip the knowledge section")
	cmd.Flags().Bool("no-history", false, "Skip the conversation history section")
	cmd.Flags().Int("max-history", 10, "Messages fetched for the history section")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	noMemories, _ := cmd.Flags().GetBool("no-memories")
	noKnowledge, _ := cmd.Flags().GetBool("no-knowledge")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	maxHistory, _ := cmd.Flags().GetInt("max-history")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	block, err := s.BuildContext(cmd.Context(), store.ContextParams{
		UserIdentifier:       userFlag,
		SessionID:            session,
		IncludeMemories:      !noMemories,
		IncludeKnowledge:     !noKnowledge,
		IncludeRecentHistory: !noHistory,
		MaxHistory:           maxHistory,
	})
	if err != nil {
		exitErr("context", err)
	}

	fmt.Println(block)
}
