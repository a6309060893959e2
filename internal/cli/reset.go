package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the failure streak so a halted worker resumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := st.ResetFailures(); err != nil {
			return err
		}
		fmt.Println("Failure count reset. Sync resumes on the next cycle.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
