package core

// SetTitle changes the note title.
func (n *Note) SetTitle(text string) {
	n.Title = text
}

// AddToggle appends a new open toggle titled "Section {count+1}" and returns it.
// Newly added sections start open so the user can type right away.
func (n *Note) AddToggle() Toggle {
	var maxID int64
	for _, t := range n.Toggles {
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	t := Toggle{
		ID:     maxID + 1,
		Title:  SectionTitle(len(n.Toggles) + 1),
		IsOpen: true,
	}
	n.Toggles = append(n.Toggles, t)
	return t
}

// FindToggle returns the index of the toggle with the given id, or -1.
func (n *Note) FindToggle(id int64) int {
	for i := range n.Toggles {
		if n.Toggles[i].ID == id {
			return i
		}
	}
	return -1
}

// SetToggleTitle updates a toggle title. It reports false if id is unknown.
func (n *Note) SetToggleTitle(id int64, text string) bool {
	i := n.FindToggle(id)
	if i < 0 {
		return false
	}
	n.Toggles[i].Title = text
	return true
}

// SetToggleContent updates a toggle body. It reports false if id is unknown.
func (n *Note) SetToggleContent(id int64, text string) bool {
	i := n.FindToggle(id)
	if i < 0 {
		return false
	}
	n.Toggles[i].Content = text
	return true
}

// ToggleOpen flips the open state of one toggle. Other toggles are not
// affected: several sections may be open at once.
func (n *Note) ToggleOpen(id int64) bool {
	i := n.FindToggle(id)
	if i < 0 {
		return false
	}
	n.Toggles[i].IsOpen = !n.Toggles[i].IsOpen
	return true
}
