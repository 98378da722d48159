package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf"
)

var titleCmd = &cobra.Command{
	Use:   "title [id] [text...]",
	Short: "Set the title of a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "note")
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		ctx := cmd.Context()
		return withSession(ctx, id, func(s *sheaf.Session) error {
			return s.SetTitle(ctx, text)
		})
	},
}

func init() {
	rootCmd.AddCommand(titleCmd)
}
