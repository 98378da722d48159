package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty note and print its id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		note, err := st.Repo.CreateNote(ctx)
		if err != nil {
			return fmt.Errorf("note %d created but not saved: %w", note.ID, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), note.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
