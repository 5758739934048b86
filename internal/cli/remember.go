package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazoom/assistant-memory/internal/admit"
	"github.com/hazoom/assistant-memory/internal/extract"
	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [text]",
		Short: "Extract and store memories from free text",
		Long:  "Run the extraction and admission pipeline over an utterance and persist the admitted candidates.",
		Run:   runRemember,
	}

	cmd.Flags().Bool("dry-run", false, "Show extraction and admission decisions without storing")

	RootCmd.AddCommand(cmd)
}

type admissionResult struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	MemoryType string `json:"memory_type"`
	Importance int    `json:"importance"`
	Stored     bool   `json:"stored"`
	Reason     string `json:"reason"`
}

func runRemember(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("remember", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	existing, err := s.ActiveKeys(cmd.Context(), userFlag)
	if err != nil {
		exitErr("load keys", err)
	}

	candidates := extract.Extract(text, userFlag)
	results := make([]admissionResult, 0, len(candidates))

	for _, c := range candidates {
		ok, reason := admit.ShouldStore(c, existing)
		r := admissionResult{
			Key:        c.Key,
			Value:      c.Value,
			MemoryType: c.MemoryType,
			Importance: c.Importance,
			Stored:     ok,
			Reason:     reason,
		}
		if ok && !dryRun {
			_, err := s.StoreMemory(cmd.Context(), store.StoreParams{
				UserIdentifier: userFlag,
				Key:            c.Key,
				Value:          c.Value,
				MemoryType:     c.MemoryType,
				Description:    c.Description,
				Importance:     c.Importance,
				Tags:           c.Tags,
			})
			if err != nil {
				exitErr("store", err)
			}
			existing[c.Key] = true
		}
		results = append(results, r)
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
