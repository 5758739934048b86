package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Run:   runList,
	}

	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().Int("min-importance", 0, "Minimum importance")
	cmd.Flags().Bool("keys-only", false, "Only output keys")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	memoryType, _ := cmd.Flags().GetString("type")
	minImportance, _ := cmd.Flags().GetInt("min-importance")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := s.ListMemories(cmd.Context(), store.ListParams{
		UserIdentifier: userFlag,
		MemoryType:     memoryType,
		MinImportance:  minImportance,
	})
	if err != nil {
		exitErr("list", err)
	}

	if keysOnly {
		for _, m := range memories {
			fmt.Println(m.Key)
		}
		return
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
