package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf"
)

var sectionCmd = &cobra.Command{
	Use:     "section",
	Aliases: []string{"toggle"},
	Short:   "Edit the sections of a note",
}

var sectionAddCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Append an open section and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "note")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return withSession(ctx, id, func(s *sheaf.Session) error {
			t, err := s.AddToggle(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		})
	},
}

var sectionTitleCmd = &cobra.Command{
	Use:   "title [id] [section] [text...]",
	Short: "Rename a section",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSection(cmd, args, (*sheaf.Session).EditToggleTitle)
	},
}

var sectionContentCmd = &cobra.Command{
	Use:   "content [id] [section] [text...]",
	Short: "Replace the content of a section",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSection(cmd, args, (*sheaf.Session).EditToggleContent)
	},
}

var sectionToggleCmd = &cobra.Command{
	Use:   "toggle [id] [section]",
	Short: "Open a closed section or close an open one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		noteID, toggleID, err := parseSectionArgs(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return withSession(ctx, noteID, func(s *sheaf.Session) error {
			ok, err := s.ToggleOpen(ctx, toggleID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("section %d not found in note %d", toggleID, noteID)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sectionCmd)
	sectionCmd.AddCommand(sectionAddCmd, sectionTitleCmd, sectionContentCmd, sectionToggleCmd)
}

func parseSectionArgs(args []string) (int64, int64, error) {
	noteID, err := parseID(args[0], "note")
	if err != nil {
		return 0, 0, err
	}
	toggleID, err := parseID(args[1], "section")
	if err != nil {
		return 0, 0, err
	}
	return noteID, toggleID, nil
}

func editSection(cmd *cobra.Command, args []string, edit func(*sheaf.Session, int64, string) (bool, error)) error {
	noteID, toggleID, err := parseSectionArgs(args)
	if err != nil {
		return err
	}
	text := strings.Join(args[2:], " ")

	return withSession(cmd.Context(), noteID, func(s *sheaf.Session) error {
		ok, err := edit(s, toggleID, text)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("section %d not found in note %d", toggleID, noteID)
		}
		return nil
	})
}
