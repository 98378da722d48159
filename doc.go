// Package sheaf is the composition root of the sheaf note keeper.
//
// A note is a titled stack of collapsible sections (toggles). Notes live in
// an ordered collection owned by a core.Repository, which persists the whole
// collection under one storage key after every change. Editing happens in a
// session.Session: discrete actions are committed immediately, text edits are
// debounced into one commit per burst, and every commit can be undone.
//
// Storage is pluggable:
//
//   - fs: one JSON file per key, atomic writes, optional git history, and
//     change notifications for edits made by other processes.
//   - sqlite: a single key/value table in an SQLite file.
//   - memory: a map, for tests and throwaway use.
//
// Usage:
//
//	st, err := sheaf.Open(ctx, "./notes", sheaf.WithVersioning(true))
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
//	note, _ := st.Repo.CreateNote(ctx)
//	s, _ := st.OpenSession(ctx, note.ID)
//	defer s.Close(ctx)
//
//	_ = s.SetTitle(ctx, "Trip")
//	_, _ = s.EditToggleContent(1, "pack sunscreen")
//	_, _ = s.Undo(ctx)
//
// Safety: under `go run` and `go test` on-disk stores are re-rooted into a
// temporary directory unless WithDevSafety(false) is given.
package sheaf
