package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a memory (soft delete)",
		Long:  "Deactivate a memory. The row is kept; re-storing the same key reactivates it.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.DeleteMemory(cmd.Context(), userFlag, args[0]); err != nil {
		exitErr("rm", err)
	}

	fmt.Printf(`{"ok":true,"key":%q}`+"\n", args[0])
}
