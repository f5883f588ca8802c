package state

import (
	"fastclock/clock/editor"
	"fastclock/clock/event"
)

// PageRows is the number of menu entries visible at once.
const PageRows = 4

// Action is what selecting a menu entry does.
type Action uint8

const (
	ActionNone Action = iota
	ActionEdit
	ActionFunc
)

// Control is the part of the machine a menu function may drive.
type Control interface {
	// EnterDiagnostic switches from MENU to the display self-test.
	EnterDiagnostic()
	// Restart requests a device restart.
	Restart()
	// Publish posts an event on the bus.
	Publish(e event.Event) error
}

// Entry is one static menu line.
type Entry struct {
	Label   string
	Action  Action
	Editor  editor.Editor
	Func    func(Control)
	Visible func() bool
}

func (e *Entry) visible() bool { return e.Visible == nil || e.Visible() }

// The helpers below run with m.mu held.

func (m *Machine) entryVisible(i int) bool {
	return i >= 0 && i < len(m.menu) && m.menu[i].visible()
}

func (m *Machine) firstVisible() int {
	for i := range m.menu {
		if m.menu[i].visible() {
			return i
		}
	}
	return -1
}

func (m *Machine) visibleCount() int {
	n := 0
	for i := range m.menu {
		if m.menu[i].visible() {
			n++
		}
	}
	return n
}

// visibleRow returns the position of entry i among the visible entries.
func (m *Machine) visibleRow(i int) int {
	row := 0
	for j := 0; j < i && j < len(m.menu); j++ {
		if m.menu[j].visible() {
			row++
		}
	}
	return row
}

// ensureVisible moves the selection to the first visible entry if the
// current one is hidden.
func (m *Machine) ensureVisible() {
	if m.entryVisible(m.selected) {
		return
	}
	if first := m.firstVisible(); first >= 0 {
		m.selected = first
	} else {
		m.selected = 0
	}
}

// clampScroll keeps the selected row inside the window with the smallest
// possible movement, then clamps the offset to [0, max(0, visible-rows)].
func (m *Machine) clampScroll() {
	n := m.visibleCount()
	row := m.visibleRow(m.selected)
	if row < m.scroll {
		m.scroll = row
	}
	if row >= m.scroll+m.pageRows {
		m.scroll = row - m.pageRows + 1
	}
	maxStart := n - m.pageRows
	if maxStart < 0 {
		maxStart = 0
	}
	if m.scroll > maxStart {
		m.scroll = maxStart
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Machine) moveUp() {
	m.move(-1)
}

func (m *Machine) moveDown() {
	m.move(1)
}

// move steps the selection over hidden entries, wrapping at both ends. With
// no visible entry the selection is left where it was.
func (m *Machine) move(dir int) {
	n := len(m.menu)
	if n == 0 {
		return
	}
	start := m.selected
	i := start
	for {
		i = (i + dir + n) % n
		if m.menu[i].visible() {
			m.selected = i
			break
		}
		if i == start {
			break
		}
	}
	m.clampScroll()
}

// selectEntry activates the selected entry. Editable entries switch to EDIT;
// function entries are returned for the caller to run once the lock is
// released.
func (m *Machine) selectEntry() func(Control) {
	if !m.entryVisible(m.selected) {
		return nil
	}
	e := &m.menu[m.selected]
	switch e.Action {
	case ActionEdit:
		if e.Editor == nil {
			m.logger.Warn("edit entry without editor", "entry", e.Label)
			return nil
		}
		m.active = e.Editor
		m.active.Begin(&m.scratch)
		m.enter(StateEdit)
	case ActionFunc:
		return e.Func
	}
	return nil
}
