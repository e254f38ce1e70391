package report

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ikstudios/step-counter/internal/channel"
)

// NoValue replaces the number of a channel with no reading.
const NoValue = "no value"

const joiner = " and "

// Formatter renders buffer snapshots as narration text.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter formats numbers for locale, falling back to en-US when
// the tag does not parse.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Line renders one channel, e.g. "Total distance: 400.0 metres".
func (f *Formatter) Line(d channel.Descriptor, r channel.Reading, ok bool) string {
	if !ok {
		return d.Label + ": " + NoValue
	}
	switch d.Kind {
	case channel.KindDecimal:
		return f.printer.Sprintf("%s: %.1f %s", d.Label, r.Value, d.Unit)
	default:
		return f.printer.Sprintf("%s: %d %s", d.Label, int64(math.Round(r.Value)), d.Unit)
	}
}

// Text joins every descriptor's line in table order.
func (f *Formatter) Text(descs []channel.Descriptor, slots map[channel.ID]channel.Reading) string {
	parts := make([]string, len(descs))
	for i, d := range descs {
		r, ok := slots[d.ID]
		parts[i] = f.Line(d, r, ok)
	}
	return strings.Join(parts, joiner)
}
