package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sheaf/pkg/core"
)

const testConfig = `store:
  dev_safety: false
editor:
  debounce: 1h
log:
  level: error
`

// resetFlags restores every flag to its default; cobra keeps parsed values
// in package variables between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T, extra ...string) *cli {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "sheaf.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(testConfig), 0644))

	store := filepath.Join(dir, "store")
	return &cli{t: t, base: append([]string{"--config", cfgFile, "--store", store}, extra...)}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(append([]string{}, c.base...), args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) newNote() string {
	c.t.Helper()
	id := strings.TrimSpace(c.mustRun("new"))
	_, err := strconv.ParseInt(id, 10, 64)
	require.NoError(c.t, err, "new should print an id, got %q", id)
	return id
}

func (c *cli) note(id string) core.Note {
	c.t.Helper()
	var n core.Note
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun("show", id, "--json")), &n))
	return n
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "sheaf version "), out)
}

func TestNewAndList(t *testing.T) {
	c := newCLI(t)
	first := c.newNote()
	second := c.newNote()

	out := c.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], second+"  Untitled  3 sections"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], first+"  "), lines[1])

	var notes []core.Note
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("list", "--json")), &notes))
	assert.Len(t, notes, 2)
}

func TestTitleAndSearch(t *testing.T) {
	c := newCLI(t)
	trip := c.newNote()
	work := c.newNote()

	c.mustRun("title", trip, "Beach", "trip")
	c.mustRun("title", work, "Work")
	c.mustRun("section", "content", work, "2", "ship the beach photos")

	assert.Equal(t, "Beach trip", c.note(trip).Title)

	out := c.mustRun("list", "--search", "  TRIP ")
	assert.Contains(t, out, "Beach trip")
	assert.NotContains(t, out, "Work")

	out = c.mustRun("list", "--search", "beach")
	assert.Contains(t, out, "Beach trip")
	assert.Contains(t, out, "Work")

	out = c.mustRun("list", "--json", "--search", "nothing matches")
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestSections(t *testing.T) {
	c := newCLI(t)
	id := c.newNote()

	assert.Equal(t, "4", strings.TrimSpace(c.mustRun("section", "add", id)))
	c.mustRun("section", "title", id, "4", "Packing")
	c.mustRun("section", "content", id, "1", "sunscreen")
	c.mustRun("section", "toggle", id, "1")

	n := c.note(id)
	require.Len(t, n.Toggles, 4)
	assert.Equal(t, "sunscreen", n.Toggles[0].Content)
	assert.True(t, n.Toggles[0].IsOpen)
	assert.False(t, n.Toggles[1].IsOpen)
	assert.Equal(t, "Packing", n.Toggles[3].Title)
	assert.True(t, n.Toggles[3].IsOpen)

	out := c.mustRun("show", id)
	assert.Contains(t, out, "# Untitled")
	assert.Contains(t, out, "[-] 1. Section 1")
	assert.Contains(t, out, "sunscreen")
	assert.Contains(t, out, "[+] 2. Section 2")

	_, err := c.run("", "section", "toggle", id, "99")
	assert.ErrorContains(t, err, "section 99 not found")
}

func TestShowErrors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "show", "12345")
	assert.ErrorContains(t, err, "not found")

	_, err = c.run("", "show", "abc")
	assert.ErrorContains(t, err, "invalid note id")

	_, err = c.run("", "title", "12345", "x")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	c := newCLI(t)
	id := c.newNote()

	out, err := c.run("n\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
	assert.Contains(t, c.mustRun("list"), id)

	out, err = c.run("y\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Note deleted: "+id)
	assert.Empty(t, strings.TrimSpace(c.mustRun("list")))

	other := c.newNote()
	c.mustRun("delete", "--yes", other)
	assert.Empty(t, strings.TrimSpace(c.mustRun("list")))

	_, err = c.run("", "delete", "--yes", other)
	assert.ErrorContains(t, err, "not found")
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	id := c.newNote()
	c.mustRun("title", id, "Trip")

	var notes []core.Note
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("export")), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "Trip", notes[0].Title)

	out := c.mustRun("export", "--format", "yaml")
	assert.Contains(t, out, "title: Trip")
	assert.Contains(t, out, "isOpen: false")

	_, err := c.run("", "export", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestEditShell(t *testing.T) {
	c := newCLI(t)
	id := c.newNote()

	script := strings.Join([]string{
		"help",
		"title Trip",
		"add",
		"status",
		"undo",
		"undo",
		"undo",
		"redo",
		"write 1 pack sunscreen",
		"name 1 Packing",
		"diff",
		"open 9",
		"bogus",
		"quit",
	}, "\n") + "\n"

	out, err := c.run(script, "edit", id)
	require.NoError(t, err)
	assert.Contains(t, out, "added section 4")
	assert.Contains(t, out, "undo yes, redo no")
	assert.Contains(t, out, "nothing to undo")
	assert.Contains(t, out, "section 1 content: {+pack sunscreen+}")
	assert.Contains(t, out, "error: no such section")
	assert.Contains(t, out, `error: unknown command "bogus"`)

	n := c.note(id)
	assert.Equal(t, "Trip", n.Title)
	require.Len(t, n.Toggles, 3, "add was undone")
	assert.Equal(t, "Packing", n.Toggles[0].Title)
	assert.Equal(t, "pack sunscreen", n.Toggles[0].Content)
}

func TestEditShellEOF(t *testing.T) {
	c := newCLI(t)
	id := c.newNote()

	_, err := c.run("title Unfinished", "edit", id)
	require.NoError(t, err)
	assert.Equal(t, "Unfinished", c.note(id).Title, "closing the shell saves pending edits")
}

func TestSQLiteAdapter(t *testing.T) {
	c := newCLI(t, "--adapter", "sqlite")
	id := c.newNote()
	c.mustRun("title", id, "Stored in sqlite")

	assert.Contains(t, c.mustRun("list"), "Stored in sqlite")
}

func TestLogRequiresHistory(t *testing.T) {
	c := newCLI(t, "--adapter", "memory")
	_, err := c.run("", "log")
	assert.ErrorContains(t, err, "keeps no history")
}
