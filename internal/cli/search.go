package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Run:   runSearch,
	}

	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().StringP("tags", "t", "", "Require tags (comma-separated)")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	memoryType, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	limit, _ := cmd.Flags().GetInt("limit")

	var query string
	if len(args) > 0 {
		query = args[0]
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := s.SearchMemories(cmd.Context(), store.SearchParams{
		UserIdentifier: userFlag,
		Query:          query,
		MemoryType:     memoryType,
		Tags:           splitTags(tagsStr),
		Limit:          limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
