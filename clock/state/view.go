package state

import "fastclock/clock/editor"

// View is a consistent snapshot of the application context for renderers.
type View struct {
	State       State
	Selected    int
	SelectedRow int
	Scroll      int
	// Labels holds every visible menu label in table order.
	Labels     []string
	EditMode   editor.Mode
	Scratch    editor.Scratch
	Diagnostic int
}

// Window returns the labels inside the scroll window.
func (v View) Window(rows int) []string {
	if v.Scroll >= len(v.Labels) {
		return nil
	}
	end := v.Scroll + rows
	if end > len(v.Labels) {
		end = len(v.Labels)
	}
	return v.Labels[v.Scroll:end]
}

// View returns a snapshot of the context.
func (m *Machine) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		State:       m.state,
		Selected:    m.selected,
		SelectedRow: m.visibleRow(m.selected),
		Scroll:      m.scroll,
		EditMode:    m.scratch.Mode,
		Scratch:     m.scratch,
		Diagnostic:  m.diag,
	}
	for i := range m.menu {
		if m.menu[i].visible() {
			v.Labels = append(v.Labels, m.menu[i].Label)
		}
	}
	return v
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Selected returns the menu table index of the selection.
func (m *Machine) Selected() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// SelectedRow returns the selection's position among the visible entries.
func (m *Machine) SelectedRow() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleRow(m.selected)
}

func (m *Machine) Scroll() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scroll
}

// EditMode reports the quantity being edited, ModeNone outside EDIT.
func (m *Machine) EditMode() editor.Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scratch.Mode
}

func (m *Machine) EditCursor() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scratch.Cursor
}

func (m *Machine) Scratch() editor.Scratch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scratch
}

// Editing reports whether an editor is active.
func (m *Machine) Editing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != nil
}

func (m *Machine) VisibleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleCount()
}

// VisibleLabel returns the label of the i-th visible entry.
func (m *Machine) VisibleLabel(i int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row := 0
	for j := range m.menu {
		if !m.menu[j].visible() {
			continue
		}
		if row == i {
			return m.menu[j].Label, true
		}
		row++
	}
	return "", false
}

// MenuCount returns the size of the menu table, hidden entries included.
func (m *Machine) MenuCount() int { return len(m.menu) }

func (m *Machine) DiagnosticOffset() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.diag
}
