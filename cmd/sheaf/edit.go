package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf"
)

const editHelp = `commands:
  title <text>          set the note title
  add                   append an open section
  open <section>        open or close a section
  name <section> <text> rename a section
  write <section> <text> replace the content of a section
  undo | redo           step through history
  diff                  changes not yet saved
  status                undo/redo availability
  show                  print the note
  quit                  save and leave
`

var errQuit = errors.New("quit")

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a note in an interactive shell with undo",
	Long: `Edit opens a line-based shell on a note. Title and text edits are
grouped into one undo step per burst of typing; structural changes are
saved and recorded at once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "note")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		return withSession(ctx, id, func(s *sheaf.Session) error {
			fmt.Fprintf(out, "editing %d %q, type help for commands\n", s.NoteID(), s.Note().DisplayTitle())
			return runShell(ctx, s, cmd.InOrStdin(), out)
		})
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runShell(ctx context.Context, s *sheaf.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "sheaf> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := execLine(ctx, s, line, out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func execLine(ctx context.Context, s *sheaf.Session, line string, out io.Writer) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		fmt.Fprint(out, editHelp)

	case "title":
		return s.EditTitle(rest)

	case "add":
		t, err := s.AddToggle(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added section %d\n", t.ID)

	case "open":
		id, err := parseID(rest, "section")
		if err != nil {
			return err
		}
		return found(s.ToggleOpen(ctx, id))

	case "name", "write":
		arg, text, _ := strings.Cut(rest, " ")
		id, err := parseID(arg, "section")
		if err != nil {
			return err
		}
		if name == "name" {
			return found(s.EditToggleTitle(id, text))
		}
		return found(s.EditToggleContent(id, text))

	case "undo", "redo":
		step := s.Undo
		if name == "redo" {
			step = s.Redo
		}
		ok, err := step(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "nothing to %s\n", name)
		}

	case "diff":
		if d := s.Diff(); d != "" {
			fmt.Fprintln(out, d)
		} else {
			fmt.Fprintln(out, "no unsaved changes")
		}

	case "status":
		st := s.Status()
		fmt.Fprintf(out, "undo %s, redo %s, pending %s\n", yesNo(st.CanUndo), yesNo(st.CanRedo), yesNo(s.Pending()))

	case "show":
		printNote(out, s.Note(), true)

	default:
		return fmt.Errorf("unknown command %q, type help", name)
	}
	return nil
}

func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no such section")
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
