package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats the report with colors and styling using
// lipgloss, suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Validation != nil {
		w.WriteString(f.formatValidation(r.Validation))
		w.WriteString("\n")
	}
	if len(r.Previews) > 0 {
		w.WriteString(f.formatPreviews(r.Previews))
	}
	if len(r.History) > 0 {
		w.WriteString(f.formatHistory(r.History))
	}
	if len(r.Cards) > 0 {
		w.WriteString(f.formatCards(r.Cards))
	}

	if r.Message != "" {
		w.WriteString(SuccessStyle.Render(r.Message))
		w.WriteString("\n")
	}
	for _, warning := range r.Warnings {
		w.WriteString(WarningStyle.Render("warning: " + warning))
		w.WriteString("\n")
	}
	return nil
}

// formatValidation builds the header box with archive metadata.
func (f *PrettyFormatter) formatValidation(v *Validation) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Archive:"), ValueStyle.Render(v.Filename)))

	history := "no"
	if v.HasHistory {
		history = "yes"
	}
	lines = append(lines, fmt.Sprintf("%s %s  %s %s  %s %s",
		LabelStyle.Render("Format:"), ValueStyle.Render(fmt.Sprintf("v%d (%s)", v.FormatVersion, v.Mode)),
		LabelStyle.Render("Cards:"), ValueStyle.Render(fmt.Sprintf("%d", v.Cards)),
		LabelStyle.Render("History:"), ValueStyle.Render(history)))

	lines = append(lines, fmt.Sprintf("%s %s  %s %s",
		LabelStyle.Render("Entries:"), ValueStyle.Render(fmt.Sprintf("%d", v.Entries)),
		LabelStyle.Render("Size:"), ValueStyle.Render(humanize.IBytes(uint64(v.Size)))))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatPreviews builds the bundle selection table.
func (f *PrettyFormatter) formatPreviews(previews []PreviewRow) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("ID", 12)),
		TableHeaderStyle.Render(padRight("SENDER", 20)),
		TableHeaderStyle.Render(padRight("OCCASION", 16)),
		TableHeaderStyle.Render("DATE")))

	for _, p := range previews {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			MutedStyle.Render(padRight(shorten(p.ID, 12), 12)),
			ValueStyle.Render(padRight(shorten(p.Sender, 20), 20)),
			ValueStyle.Render(padRight(shorten(p.Occasion, 16), 16)),
			MutedStyle.Render(p.Date.Format("2006-01-02"))))
	}
	return sb.String()
}

// formatHistory builds the snapshot table for one card.
func (f *PrettyFormatter) formatHistory(history []HistoryRow) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("VERSION", 8)),
		TableHeaderStyle.Render(padRight("EDITED", 17)),
		TableHeaderStyle.Render("CHANGES")))

	for _, h := range history {
		var changes []string
		if len(h.Fields) > 0 {
			changes = append(changes, strings.Join(h.Fields, ", "))
		}
		if len(h.Slots) > 0 {
			changes = append(changes, "images: "+strings.Join(h.Slots, ", "))
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			ValueStyle.Render(padRight(fmt.Sprintf("v%d", h.Version), 8)),
			MutedStyle.Render(padRight(h.EditedAt.Format("2006-01-02 15:04"), 17)),
			ValueStyle.Render(strings.Join(changes, "; "))))
	}
	return sb.String()
}

// formatCards builds the stored-card listing table.
func (f *PrettyFormatter) formatCards(cards []CardRow) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("ID", 12)),
		TableHeaderStyle.Render(padRight("SENDER", 20)),
		TableHeaderStyle.Render(padRight("OCCASION", 16)),
		TableHeaderStyle.Render(padRight("DATE", 10)),
		TableHeaderStyle.Render("FAV")))

	for _, c := range cards {
		favorite := " "
		if c.Favorite {
			favorite = FavoriteStyle.Render("*")
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s  %s\n",
			MutedStyle.Render(padRight(shorten(c.ID, 12), 12)),
			ValueStyle.Render(padRight(shorten(c.Sender, 20), 20)),
			ValueStyle.Render(padRight(shorten(c.Occasion, 16), 16)),
			MutedStyle.Render(padRight(c.Date.Format("2006-01-02"), 10)),
			favorite))
	}
	return sb.String()
}

// padRight pads s with spaces to at least width characters.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// shorten truncates s to at most width characters with an ellipsis.
func shorten(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}
