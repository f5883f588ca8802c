package app

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError is returned by a task that panicked.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}

// guard turns a panic in fn into a PanicError. The stack goes to the log
// and the panic is shown on the LCD, since the device may have no UART
// attached.
func (s *System) guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			err = &PanicError{Task: name, Value: v}
			s.logger.Error("panic", "task", name, "value", fmt.Sprint(v))
			for _, line := range strings.Split(string(debug.Stack()), "\n") {
				if line == "" {
					continue
				}
				s.h.Logger().WriteLineString(line)
			}
			s.showPanic(name, v)
		}()
		return fn()
	}
}

func (s *System) showPanic(name string, v any) {
	lcd := s.h.Display()
	if lcd == nil {
		return
	}
	msg := fmt.Sprint(v)
	cols := lcd.Cols()
	lines := []string{"PANIC", "task: " + name}
	for len(msg) > 0 && len(lines) < lcd.Rows() {
		n := min(cols, len(msg))
		lines = append(lines, msg[:n])
		msg = msg[n:]
	}
	for row := 0; row < lcd.Rows(); row++ {
		var text string
		if row < len(lines) {
			text = lines[row]
		}
		_ = lcd.WriteRow(row, []byte(text))
	}
}
