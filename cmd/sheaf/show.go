package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf/pkg/core"
)

var (
	showJSON bool
	showAll  bool
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Long:  `Print a note. Closed sections show only their title unless --all is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "note")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		note, ok := st.Repo.GetNote(id)
		if !ok {
			return fmt.Errorf("note %d not found", id)
		}

		if showJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(note)
		}
		printNote(cmd.OutOrStdout(), note, showAll)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().BoolVarP(&showAll, "all", "a", false, "Show the content of closed sections too")
}

func printNote(w io.Writer, n core.Note, all bool) {
	fmt.Fprintf(w, "# %s\n", n.DisplayTitle())
	fmt.Fprintf(w, "id %d, created %s, updated %s\n\n", n.ID,
		n.Created.Local().Format(time.DateTime), n.Updated.Local().Format(time.DateTime))

	for _, t := range n.Toggles {
		marker := "[+]"
		if t.IsOpen {
			marker = "[-]"
		}
		fmt.Fprintf(w, "%s %d. %s\n", marker, t.ID, t.Title)
		if !t.IsOpen && !all {
			continue
		}
		for line := range strings.SplitSeq(t.Content, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}
