package display

import (
	"fmt"
	"time"

	"fastclock/clock/editor"
	"fastclock/clock/state"
)

// Caret marks the selected menu entry.
const Caret = '>'

func splash(title, version string, headline string) Frame {
	f := blankFrame()
	f.put(0, 3, headline)
	f.put(2, 4, title)
	f.put(3, 4, version)
	return f
}

func formatTS(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(editor.DateTimeLayout)
}

func clockScreen(wall, model int64, running bool, scale uint32) Frame {
	f := blankFrame()
	f.put(0, 0, formatTS(wall))
	f.put(1, 0, formatTS(model))
	if running {
		f.put(3, 0, "RUNNING")
	} else {
		f.put(3, 0, "PAUSED")
	}
	f.put(3, 16, fmt.Sprintf("1:%02d", scale))
	return f
}

func menuScreen(v state.View) Frame {
	f := blankFrame()
	for i, label := range v.Window(Rows) {
		row := i
		if v.Scroll+i == v.SelectedRow {
			f.putByte(row, 0, Caret)
		}
		if len(label) > Cols-3 {
			label = label[:Cols-3]
		}
		f.put(row, 2, label)
	}
	if v.Scroll > 0 {
		f.put(0, Cols-1, "^")
	}
	if v.Scroll+Rows < len(v.Labels) {
		f.put(Rows-1, Cols-1, "v")
	}
	return f
}

func editScreen(s editor.Scratch) Frame {
	f := blankFrame()
	switch s.Mode {
	case editor.ModeRealTime, editor.ModeModelTime:
		if s.Mode == editor.ModeRealTime {
			f.put(0, 0, "Realtime:")
		} else {
			f.put(0, 0, "Modeltime:")
		}
		f.put(1, 0, formatTS(s.Timestamp))
		col, width := editor.FieldSpan(s.Cursor)
		for i := 0; i < width; i++ {
			f.putByte(2, col+i, '^')
		}
	case editor.ModeTimescale:
		f.put(0, 0, "Timescale:")
		f.put(1, 9, fmt.Sprintf("%02d", s.Timescale))
		f.put(2, 9, "^^")
	}
	f.put(3, 0, "BACK")
	f.put(3, 16, "OK")
	return f
}

func diagnosticScreen(offset int) Frame {
	f := blankFrame()
	f.put(0, 0, "Y/X 0123456789ABCDEF")
	for row := 0; row < Rows-1; row++ {
		y := row + offset
		f.put(row+1, 0, fmt.Sprintf("%1XX", y&0xf))
		for x := 0; x < 16; x++ {
			f.putByte(row+1, 4+x, byte(y*16+x))
		}
	}
	return f
}
