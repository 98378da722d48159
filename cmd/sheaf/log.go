package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// historian is implemented by backends that keep a change log (fs with git).
type historian interface {
	History(ctx context.Context, key string, n int) ([]string, error)
}

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the saved versions of the notes (fs store with versioning)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		h, ok := st.Backend.(historian)
		if !ok {
			return errors.New("this store keeps no history")
		}
		lines, err := h.History(ctx, st.Repo.Key(), logLimit)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of entries")
}
