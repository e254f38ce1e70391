package logging

import (
	"fmt"
	"io"
	"sync"
)

// #region echo
// Echo is the in-app log view: a bounded buffer of message-only lines,
// optionally mirrored to a writer as they arrive.
type Echo struct {
	mu     sync.Mutex
	lines  []string
	max    int
	mirror io.Writer
}

// NewEcho keeps at most max lines. A max of zero keeps 200.
func NewEcho(max int, mirror io.Writer) *Echo {
	if max <= 0 {
		max = 200
	}
	return &Echo{max: max, mirror: mirror}
}

// Append adds a line, dropping the oldest when full.
func (e *Echo) Append(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lines = append(e.lines, line)
	if over := len(e.lines) - e.max; over > 0 {
		e.lines = append(e.lines[:0], e.lines[over:]...)
	}
	if e.mirror != nil {
		fmt.Fprintln(e.mirror, line)
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (e *Echo) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.lines))
	copy(out, e.lines)
	return out
}
// #endregion echo
