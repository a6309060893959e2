package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Delete the hash store so every file is re-indexed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := st.DeleteHashes(); err != nil {
			return err
		}
		fmt.Println("Hash store cleared. The next cycle re-indexes the full vault.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
