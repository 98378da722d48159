package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf/pkg/core"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Long:  `Delete permanently removes a note. It asks for confirmation unless --yes is given.`,
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

		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())
		deleted, err := st.Repo.ConfirmDelete(ctx, id, func(n core.Note) bool {
			if deleteYes {
				return true
			}
			fmt.Fprintf(out, "Delete %q (%d sections)? [y/N] ", n.DisplayTitle(), len(n.Toggles))
			answer, _ := in.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		})
		if err != nil {
			return err
		}

		if !deleted {
			if _, ok := st.Repo.GetNote(id); !ok {
				return fmt.Errorf("note %d not found", id)
			}
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
		fmt.Fprintf(out, "Note deleted: %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}
