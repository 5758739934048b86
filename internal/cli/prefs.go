package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hazoom/assistant-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show user preferences",
		Run:   runPrefsShow,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update user preferences",
		Run:   runPrefsSet,
	}
	setCmd.Flags().String("style", "", "Response style: concise, detailed, technical, casual, quantum")
	setCmd.Flags().String("level", "", "Default intelligence level: nano, standard, super, quantum")

	prefsCmd.AddCommand(setCmd)
	RootCmd.AddCommand(prefsCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	prefs, err := s.GetPreferences(cmd.Context(), userFlag)
	if err != nil {
		exitErr("prefs", err)
	}

	b, _ := json.MarshalIndent(prefs, "", "  ")
	fmt.Println(string(b))
}

func runPrefsSet(cmd *cobra.Command, args []string) {
	style, _ := cmd.Flags().GetString("style")
	level, _ := cmd.Flags().GetString("level")

	var update store.PreferenceUpdate
	if style != "" {
		update.PreferredResponseStyle = &style
	}
	if level != "" {
		update.DefaultIntelligenceLevel = &level
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	prefs, err := s.UpdatePreferences(cmd.Context(), userFlag, update)
	if err != nil {
		exitErr("prefs set", err)
	}

	b, _ := json.MarshalIndent(prefs, "", "  ")
	fmt.Println(string(b))
}
