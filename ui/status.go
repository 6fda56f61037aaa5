package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/readaloud/reading"
)

// readingStatus summarizes the reader for the status bar.
type readingStatus struct {
	snapshot reading.Snapshot
	errMsg   string
}

func (s *readingStatus) update(snap reading.Snapshot) {
	s.snapshot = snap
	if snap.State == reading.StateReading && snap.ChunksSpoken == 0 {
		s.errMsg = ""
	}
}

func (s *readingStatus) setError(err error) {
	if err == nil {
		s.errMsg = ""
		return
	}
	s.errMsg = err.Error()
}

// busy reports whether the spinner should run.
func (s *readingStatus) busy() bool {
	return s.snapshot.State == reading.StateStopping ||
		(s.snapshot.State == reading.StateReading && s.snapshot.Buffer.Refilling)
}

// compact returns a short status string for the status bar. spin is the
// current spinner frame.
func (s *readingStatus) compact(spin string) string {
	var (
		icon  string
		color lipgloss.TerminalColor
	)

	switch s.snapshot.State {
	case reading.StateReading:
		icon = "▶"
		color = lipgloss.Color("#00FF00")
	case reading.StateStopping:
		icon = "◼"
		color = lipgloss.Color("#FF8800")
	default:
		icon = "■"
		color = lipgloss.Color("#888888")
	}

	status := lipgloss.NewStyle().Foreground(color).Render(icon + " " + s.snapshot.State.String())

	if s.snapshot.State != reading.StateIdle {
		counter := fmt.Sprintf(" chunk %d", s.snapshot.ChunksSpoken+1)
		if s.snapshot.Buffer.Queued > 0 {
			counter += fmt.Sprintf(", %d queued", s.snapshot.Buffer.Queued)
		}
		status += lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(counter)
	}

	if s.busy() && spin != "" {
		status += " " + strings.TrimSpace(spin)
	}

	return status
}

// detail returns a multi-line status used in the help view.
func (s *readingStatus) detail(width int) string {
	snap := s.snapshot
	lines := []string{
		fmt.Sprintf("state     %s", snap.State),
		fmt.Sprintf("spoken    %d chunks", snap.ChunksSpoken),
		fmt.Sprintf("buffer    %d queued, %d buffered, %d refills", snap.Buffer.Queued, snap.Buffer.Buffered, snap.Buffer.Refills),
	}

	if c := snap.Cleaning; c.Calls > 0 {
		lines = append(lines, fmt.Sprintf("cleaning  %d calls, %d fallbacks, avg %s", c.Calls, c.Fallbacks, c.AvgDuration.Round(time.Millisecond)))
	}

	if s.errMsg != "" {
		errLine := truncate.StringWithTail(s.errMsg, uint(max(width-12, 10)), ellipsis) //nolint:gosec
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render("error     "+errLine))
	}

	return strings.Join(lines, "\n")
}
