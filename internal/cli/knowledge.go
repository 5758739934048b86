package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	knowledgeCmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the global knowledge base",
	}

	addCmd := &cobra.Command{
		Use:   "add <title> <content>",
		Short: "Add a knowledge entry",
		Args:  cobra.ExactArgs(2),
		Run:   runKnowledgeAdd,
	}
	addCmd.Flags().StringP("category", "c", "general", "Category")
	addCmd.Flags().String("summary", "", "Summary (default: first 200 chars of content)")
	addCmd.Flags().StringP("keywords", "k", "", "Comma-separated keywords")
	addCmd.Flags().String("source", "", "Source reference")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search knowledge entries",
		Args:  cobra.ExactArgs(1),
		Run:   runKnowledgeSearch,
	}
	searchCmd.Flags().StringP("category", "c", "", "Filter by category")
	searchCmd.Flags().IntP("limit", "l", 5, "Max results")

	knowledgeCmd.AddCommand(addCmd, searchCmd)
	RootCmd.AddCommand(knowledgeCmd)
}

func runKnowledgeAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	summary, _ := cmd.Flags().GetString("summary")
	keywordsStr, _ := cmd.Flags().GetString("keywords")
	source, _ := cmd.Flags().GetString("source")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entry, err := s.AddKnowledge(cmd.Context(), store.AddKnowledgeParams{
		Category: category,
		Title:    args[0],
		Content:  args[1],
		Summary:  summary,
		Keywords: splitTags(keywordsStr),
		Source:   source,
	})
	if err != nil {
		exitErr("knowledge add", err)
	}

	b, _ := json.Marshal(entry)
	fmt.Println(string(b))
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.SearchKnowledge(cmd.Context(), store.KnowledgeSearchParams{
		Query:    args[0],
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		exitErr("knowledge search", err)
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
