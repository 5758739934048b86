package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.GetMemory(cmd.Context(), userFlag, args[0])
	if err != nil {
		exitErr("get", err)
	}
	if mem == nil {
		fmt.Fprintf(os.Stderr, "not found: %s\n", args[0])
		os.Exit(1)
	}

	b, _ := json.MarshalIndent(mem, "", "  ")
	fmt.Println(string(b))
}
