package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"github.com/tanq16/netreq"
)

// progressRenderer redraws a single status line in place, the way the
// teacher's internal/output.Manager redraws its multi-line dashboard, but
// scaled down to the one line this CLI ever needs at once.
type progressRenderer struct {
	label     string
	start     time.Time
	lastWidth int
}

func newProgressRenderer(label string) *progressRenderer {
	return &progressRenderer{label: label, start: time.Now()}
}

func (r *progressRenderer) update(p netreq.ProgressEvent) {
	if !showProgress {
		return
	}
	width := terminalWidth()
	pct := 0.0
	if p.Total > 0 {
		pct = float64(p.Received) / float64(p.Total) * 100
	}
	line := fmt.Sprintf("%s  %6.2f%%  %s / %s", r.label, pct, humanBytes(p.Received), humanBytes(p.Total))
	r.redraw(line, width)
}

func (r *progressRenderer) finish(res netreq.Result) {
	if !showProgress {
		return
	}
	r.clear()
	status := "done"
	if res.Cancelled {
		status = "cancelled"
	} else if !res.Success {
		status = "failed: " + res.ErrorMessage
	}
	fmt.Fprintf(os.Stderr, "%s  %s  (%dms)\n", r.label, status, res.Performance.DurationMs)
}

func (r *progressRenderer) redraw(line string, width int) {
	if width > 0 && len(line) > width {
		line = line[:width]
	}
	fmt.Fprintf(os.Stderr, "\r%s", line)
	if pad := r.lastWidth - len(line); pad > 0 {
		fmt.Fprint(os.Stderr, strings.Repeat(" ", pad))
	}
	r.lastWidth = len(line)
}

func (r *progressRenderer) clear() {
	if r.lastWidth > 0 {
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", r.lastWidth))
	}
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
