package session

import (
	"fmt"
	"strings"

	"github.com/aretw0/sheaf/pkg/core"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff describes how working differs from stored, one line per
// changed field. Text changes are shown inline as [-removed-]{+added+}.
func renderDiff(stored, working core.Note) string {
	dmp := diffmatchpatch.New()
	var b strings.Builder

	if stored.Title != working.Title {
		fmt.Fprintf(&b, "title: %s\n", inlineDiff(dmp, stored.Title, working.Title))
	}

	for _, w := range working.Toggles {
		i := stored.FindToggle(w.ID)
		if i < 0 {
			fmt.Fprintf(&b, "+ section %d %q\n", w.ID, w.Title)
			continue
		}
		s := stored.Toggles[i]
		if s.Title != w.Title {
			fmt.Fprintf(&b, "~ section %d title: %s\n", w.ID, inlineDiff(dmp, s.Title, w.Title))
		}
		if s.Content != w.Content {
			fmt.Fprintf(&b, "~ section %d content: %s\n", w.ID, inlineDiff(dmp, s.Content, w.Content))
		}
		if s.IsOpen != w.IsOpen {
			fmt.Fprintf(&b, "~ section %d %s\n", w.ID, openLabel(w.IsOpen))
		}
	}
	for _, s := range stored.Toggles {
		if working.FindToggle(s.ID) < 0 {
			fmt.Fprintf(&b, "- section %d %q\n", s.ID, s.Title)
		}
	}
	return b.String()
}

func inlineDiff(dmp *diffmatchpatch.DiffMatchPatch, a, b string) string {
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var out strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffDelete:
			out.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffEqual:
			out.WriteString(d.Text)
		}
	}
	return out.String()
}

func openLabel(open bool) string {
	if open {
		return "opened"
	}
	return "closed"
}
