package cli

import (
	"fmt"
	"io"

	"github.com/uaremad/imgcache"
	"github.com/uaremad/imgcache/internal/format"
	"github.com/uaremad/imgcache/internal/ui"
)

// PresentResults displays the fetch summary table with URLs, sizes,
// durations, and status in a formatted tabular layout. Uses manual padding
// to correctly handle ANSI color codes.
func PresentResults(results []FetchResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Fetch Summary ---\n")

	maxURLLen := 3 // "URL" header length
	for _, res := range results {
		if len(res.URL) > maxURLLen {
			maxURLLen = len(res.URL)
		}
	}

	fmt.Fprintf(out, "%sURL%s%s   %sSize%s       %sDuration%s   %sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxURLLen-3),
		ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%sfailed (%v)%s", ui.ColorError(), res.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%sok%s", ui.ColorSuccess(), ui.ColorReset())
		}
		size := format.FormatBytes(uint64(res.Bytes))
		duration := format.FormatExecutionDuration(res.Duration)
		fmt.Fprintf(out, "%s%s%s%s   %-10s %-10s %s\n",
			ui.ColorPrimary(), res.URL, ui.ColorReset(), padRight("", maxURLLen-len(res.URL)),
			size, duration, status)
	}
}

// PresentStats displays a cache usage summary.
func PresentStats(stats imgcache.Stats, out io.Writer) {
	fmt.Fprintf(out, "Cache directory: %s%s%s\n", ui.ColorPrimary(), stats.Dir, ui.ColorReset())
	fmt.Fprintf(out, "Entries:         %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:            %s of %s\n",
		format.FormatBytes(uint64(stats.TotalBytes)), format.FormatBytes(uint64(stats.MaxBytes)))
}

// PresentEntries lists cached entries, oldest metadata first.
func PresentEntries(entries []imgcache.Entry, out io.Writer) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s%s%s  %s  fetched %s\n",
			ui.ColorPrimary(), e.URL, ui.ColorReset(),
			format.FormatBytes(uint64(e.Size)),
			e.FetchedAt.Format("2006-01-02 15:04:05"))
	}
}

// padRight returns a string of spaces with the given length.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}
