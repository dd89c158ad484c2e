package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

var radarFrames = []string{"◜", "◝", "◞", "◟"}

// termMu synchronizes all terminal output so a progress redraw is never
// interleaved with a log write.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

type termWriter struct {
	w io.Writer
}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return tw.w.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
// It serialises writes with PrintProgress via termMu.
func NewTermWriter() io.Writer {
	return termWriter{w: os.Stderr}
}

func PrintBanner(w io.Writer) {
	banner := `
   ___ _           _                  _ _   _
  / __| |_  __ _ (_)_ _  ____ __  (_) |_| |_
 | (__| ' \/ _' || | ' \(_-< '  \ | |  _| ' \
  \___|_||_\__,_||_|_||_/__/_|_|_||_|\__|_||_|
`
	width := termWidth()
	termMu.Lock()
	defer termMu.Unlock()
	for _, l := range strings.Split(banner, "\n") {
		padding := clamp((width-len(l))/2, 0, width)
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan, l, colorReset)
	}
}

// ProgressLine renders a one-line status for the current activity, sized
// to width columns.
func ProgressLine(a Activity, frame, width int) string {
	radar := " "
	color := colorReset
	if a.Running {
		radar = radarFrames[frame%len(radarFrames)]
		color = colorNeonCyan
	}

	label := a.Label
	if label == "" {
		label = "idle"
	}
	counts := fmt.Sprintf(" %d/%d settled", a.Settled, a.Total)
	if a.Failed > 0 {
		counts += fmt.Sprintf(", %d failed", a.Failed)
	}

	room := clamp(width-len(counts)-4, 8, width)
	if len(label) > room {
		label = label[:room-3] + "..."
	}
	return fmt.Sprintf("%s%s%s %s%s", color, radar, colorReset, label, counts)
}

// PrintProgress redraws the progress line in place.
func PrintProgress(w io.Writer, a Activity, frame int) {
	line := ProgressLine(a, frame, termWidth())
	termMu.Lock()
	fmt.Fprintf(w, "\r\033[K%s", line)
	termMu.Unlock()
}
