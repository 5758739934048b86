package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [value]",
		Short: "Store a memory under an explicit key",
		Long:  "Store a memory. Value can be a positional arg or piped via stdin. Writing an existing key upserts it.",
		Run:   runPut,
	}

	cmd.Flags().StringP("key", "k", "", "Memory key (required)")
	cmd.Flags().String("type", "fact", "Memory type: fact, preference, context, knowledge, system")
	cmd.Flags().IntP("importance", "i", 5, "Importance 1-10")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("desc", "", "Description")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	memoryType, _ := cmd.Flags().GetString("type")
	importance, _ := cmd.Flags().GetInt("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	desc, _ := cmd.Flags().GetString("desc")

	var value string
	if len(args) > 0 {
		value = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			value = string(b)
		}
	}

	if strings.TrimSpace(value) == "" {
		exitErr("put", fmt.Errorf("value is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.StoreMemory(cmd.Context(), store.StoreParams{
		UserIdentifier: userFlag,
		Key:            key,
		Value:          strings.TrimSpace(value),
		MemoryType:     memoryType,
		Description:    desc,
		Importance:     importance,
		Tags:           splitTags(tagsStr),
	})
	if err != nil {
		exitErr("put", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}

func splitTags(tagsStr string) []string {
	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
