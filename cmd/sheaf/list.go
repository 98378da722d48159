package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf/pkg/core"
)

var (
	listJSON   bool
	listSearch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Long:  `List notes in store order. --search keeps notes whose title or any section matches, ignoring case.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		notes := slices.Collect(st.Repo.GetNotes(listSearch))
		out := cmd.OutOrStdout()

		if listJSON {
			if notes == nil {
				notes = []core.Note{}
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}

		for _, n := range notes {
			fmt.Fprintf(out, "%d  %s  %d sections  %s\n",
				n.ID, n.DisplayTitle(), len(n.Toggles), n.Updated.Local().Format(time.DateTime))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by text in titles and sections")
}
