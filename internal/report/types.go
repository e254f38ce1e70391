package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikstudios/step-counter/internal/channel"
)

// #region mode
// Mode controls when the report is assembled relative to the queries.
type Mode string

const (
	// ModeAwait waits for every query to settle, bounded by Config.Timeout.
	ModeAwait Mode = "await"
	// ModeSnapshot assembles right after issuing the queries; only
	// values that are already in the buffer are narrated.
	ModeSnapshot Mode = "snapshot"
)

// ErrUnknownMode is returned by ParseMode for anything but await or snapshot.
var ErrUnknownMode = errors.New("unknown report mode")

// ParseMode maps a config string onto a Mode. An empty string is await.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAwait:
		return ModeAwait, nil
	case ModeSnapshot:
		return ModeSnapshot, nil
	default:
		return "", fmt.Errorf("%w %q: want %s or %s", ErrUnknownMode, s, ModeAwait, ModeSnapshot)
	}
}

// #endregion mode

// #region config
// Config holds report assembly settings.
type Config struct {
	Mode     Mode
	Timeout  time.Duration // await bound; zero waits until ctx ends
	Location *time.Location
	Locale   string // BCP 47 tag used for number formatting
}

// DefaultConfig awaits up to ten seconds and formats for en-US.
func DefaultConfig() Config {
	return Config{
		Mode:     ModeAwait,
		Timeout:  10 * time.Second,
		Location: time.Local,
		Locale:   "en-US",
	}
}

// #endregion config

// #region report
// StatusIssued is returned by Read once the fan-out has been issued. It
// says nothing about whether data arrived.
const StatusIssued = "Data read!"

// Report is one narrated summary of today's totals.
type Report struct {
	ID        string
	Text      string
	Readings  []channel.Reading // channels that had a value at assembly time
	Missing   []channel.ID      // channels rendered as "no value"
	Mode      Mode
	CreatedAt time.Time
}

// #endregion report

// #region collaborators
// Narrator speaks report text. interruptPending flushes anything queued.
type Narrator interface {
	Speak(text string, interruptPending bool)
}

// Recorder persists assembled reports.
type Recorder interface {
	SaveReport(ctx context.Context, r Report) error
}

// #endregion collaborators
