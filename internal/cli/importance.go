package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "importance <key> <1-10>",
		Short: "Update a memory's importance",
		Args:  cobra.ExactArgs(2),
		Run:   runImportance,
	}

	RootCmd.AddCommand(cmd)
}

func runImportance(cmd *cobra.Command, args []string) {
	importance, err := strconv.Atoi(args[1])
	if err != nil {
		exitErr("importance", fmt.Errorf("not a number: %q", args[1]))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.SetImportance(cmd.Context(), userFlag, args[0], importance); err != nil {
		exitErr("importance", err)
	}

	fmt.Printf(`{"ok":true,"key":%q,"importance":%d}`+"\n", args[0], importance)
}
