package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PlainFormatter produces unstyled line-oriented output suitable for
// piping into other tools.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Validation != nil {
		v := r.Validation
		fmt.Fprintf(w, "archive: %s\n", v.Filename)
		fmt.Fprintf(w, "format version: %d\n", v.FormatVersion)
		fmt.Fprintf(w, "mode: %s\n", v.Mode)
		fmt.Fprintf(w, "entries: %d\n", v.Entries)
		fmt.Fprintf(w, "size: %s\n", humanize.IBytes(uint64(v.Size)))
		fmt.Fprintf(w, "cards: %d\n", v.Cards)
		fmt.Fprintf(w, "history: %v\n", v.HasHistory)
	}

	for _, p := range r.Previews {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID, p.Sender, p.Occasion, p.Date.Format("2006-01-02"))
	}

	for _, h := range r.History {
		fmt.Fprintf(w, "v%d\t%s\tfields=%s\timages=%s\n",
			h.Version, h.EditedAt.Format("2006-01-02 15:04"),
			strings.Join(h.Fields, ","), strings.Join(h.Slots, ","))
	}

	for _, c := range r.Cards {
		favorite := ""
		if c.Favorite {
			favorite = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Sender, c.Occasion, c.Date.Format("2006-01-02"), favorite)
	}

	if r.Message != "" {
		fmt.Fprintln(w, r.Message)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
