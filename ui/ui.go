// Package ui provides the terminal reader for readaloud.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/reading"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied"
	ellipsis             = "…"
)

var (
	cream   = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia = lipgloss.Color("#EE6FF8")
	green   = lipgloss.Color("#04B575")
	red     = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	gray    = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(gray)
)

// ErrNoReader is returned by NewProgram when no reader factory is given.
var ErrNoReader = errors.New("no reader factory")

// Options wires the program to the reading pipeline.
type Options struct {
	// Document to show. When nil, the document at Config.Path is loaded.
	Document *document.Document

	// NewReader builds a reader for a document. The highlighter it receives
	// must be passed on to the reader.
	NewReader func(doc *document.Document, h reading.Highlighter) (*reading.Reader, error)

	// Load reads the document at path, for the initial load and reloads.
	Load func(path string) (*document.Document, error)

	// CacheStats optionally describes the cleaning cache for the help view.
	CacheStats func() string

	// Context bounds every reading session.
	Context context.Context
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, opts Options) (*tea.Program, error) {
	if opts.NewReader == nil {
		return nil, ErrNoReader
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	log.Debug(
		"Starting readaloud",
		"path", cfg.Path,
		"watch", cfg.Watch,
		"follow", cfg.FollowReading,
	)

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, opts), programOpts...), nil
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	documentLoadedMsg       struct{ doc *document.Document }
	statusMessageTimeoutMsg struct{}
)

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	opts   Options
	width  int
	height int
}

type model struct {
	common   *commonModel
	fatalErr error
	pager    pagerModel
}

func newModel(cfg Config, opts Options) model {
	common := &commonModel{cfg: cfg, opts: opts}
	return model{
		common: common,
		pager:  newPagerModel(common),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.pager.init()}

	if doc := m.common.opts.Document; doc != nil {
		cmds = append(cmds, func() tea.Msg { return documentLoadedMsg{doc} })
	} else if m.common.cfg.Path != "" {
		cmds = append(cmds, m.pager.loadDocument())
	} else {
		cmds = append(cmds, func() tea.Msg { return errMsg{reading.ErrNoDocument} })
	}

	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.pager.unload()
			return m, tea.Quit
		case "q":
			if !m.pager.searching {
				m.pager.unload()
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.pager.setSize(msg.Width, msg.Height)

	case errMsg:
		if m.pager.doc == nil {
			m.fatalErr = msg
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.pager, cmd = m.pager.update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}
	return m.pager.View()
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

func logoView() string {
	return logoStyle.Render(" readaloud ")
}

// COMMANDS

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
