// Package report renders the user-facing outputs: the unmatched-items
// report used to author manual overrides, and the unwatched-films list.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"reelmatch/internal/library"
)

// unmatchedDisplayLimit caps the rows shown in the unmatched report.
const unmatchedDisplayLimit = 20

// RenderUnmatched formats the unmatched items with enough context to
// hand-author manual overrides. Rows beyond the display limit are
// summarized.
func RenderUnmatched(items []library.Item) string {
	if len(items) == 0 {
		return "All films matched.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Unmatched films (%d)\n", len(items))
	b.WriteString("Add entries to manual_overrides.json to fix these:\n\n")

	shown := items
	if len(shown) > unmatchedDisplayLimit {
		shown = shown[:unmatchedDisplayLimit]
	}

	headers := []string{"Folder", "Title", "Year"}
	rows := make([][]string, 0, len(shown))
	for _, item := range shown {
		rows = append(rows, []string{item.Folder, item.Title, yearLabel(item.Year)})
	}
	b.WriteString(RenderTable(headers, rows))
	b.WriteByte('\n')

	for _, item := range shown {
		fmt.Fprintf(&b, "  %q: {\"letterboxd_slug\": \"SLUG_HERE\"},  # %s (%s)\n",
			item.Folder, item.Title, yearLabel(item.Year))
	}

	if len(items) > unmatchedDisplayLimit {
		fmt.Fprintf(&b, "\n  ... and %d more\n", len(items)-unmatchedDisplayLimit)
	}
	return b.String()
}

func yearLabel(year int) string {
	if year == 0 {
		return "????"
	}
	return strconv.Itoa(year)
}
