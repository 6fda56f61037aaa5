package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/reading"
)

const (
	statusBarHeight = 1
	keyEsc          = "esc"
)

var (
	pagerHelpHeight int

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	statusBarScrollPosStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	statusBarMessageHelpStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("#B6FFE4")).
					Background(green).
					Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

type reloadMsg struct{}

type pagerState int

const (
	pagerStateBrowse pagerState = iota
	pagerStateStatusMessage
)

type pagerStatusMessage struct {
	message string
	isError bool
}

type pagerModel struct {
	common   *commonModel
	viewport viewport.Model
	spinner  spinner.Model
	search   textinput.Model
	state    pagerState
	showHelp bool

	searching bool

	statusMessage      pagerStatusMessage
	statusMessageTimer *time.Timer

	doc       *document.Document
	frags     []*document.Fragment // readable fragments in reading order
	fragIndex map[*document.Fragment]int
	cursor    int
	layout    rendered

	reader    *reading.Reader
	hl        *highlighter
	events    events
	status    readingStatus
	follow    bool
	lastChunk string

	watcher  *fsnotify.Watcher
	watching bool
}

func newPagerModel(common *commonModel) pagerModel {
	vp := viewport.New(0, 0)
	vp.YPosition = 0

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(fuchsia)),
	)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "find a line to start from"
	search.PromptStyle = lipgloss.NewStyle().Foreground(fuchsia)
	search.CharLimit = 256

	m := pagerModel{
		common:   common,
		state:    pagerStateBrowse,
		viewport: vp,
		spinner:  sp,
		search:   search,
		hl:       newHighlighter(),
		events:   newEvents(),
		follow:   common.cfg.FollowReading,
	}
	if common.cfg.Watch && common.cfg.Path != "" {
		m.initWatcher()
	}
	return m
}

func (m pagerModel) init() tea.Cmd {
	return tea.Batch(m.hl.wait(), m.events.listen())
}

func (m *pagerModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h - statusBarHeight

	if m.showHelp {
		if pagerHelpHeight == 0 {
			pagerHelpHeight = strings.Count(m.helpView(), "\n")
		}
		m.viewport.Height -= (statusBarHeight + pagerHelpHeight)
	}
	m.viewport.Height = max(m.viewport.Height, 1)
}

func (m *pagerModel) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.common.width, m.common.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m *pagerModel) showStatusMessage(msg pagerStatusMessage) tea.Cmd {
	m.state = pagerStateStatusMessage
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

// setDocument replaces the shown document and builds a fresh reader for it.
// A running reader is stopped first.
func (m *pagerModel) setDocument(doc *document.Document) error {
	r, err := m.common.opts.NewReader(doc, m.hl)
	if err != nil {
		return fmt.Errorf("unable to create reader: %w", err)
	}
	if m.reader != nil {
		_ = m.reader.Stop()
	}

	m.events.attach(r)
	m.reader = r
	m.doc = doc
	m.frags = readable(doc)
	m.fragIndex = make(map[*document.Fragment]int, len(m.frags))
	for i, f := range m.frags {
		m.fragIndex[f] = i
	}
	m.cursor = min(m.cursor, max(len(m.frags)-1, 0))
	m.status.update(r.Snapshot())
	return nil
}

// readable returns the fragments a reading can start from.
func readable(doc *document.Document) []*document.Fragment {
	var frags []*document.Fragment
	for _, p := range doc.Pages() {
		if !p.LaidOut {
			continue
		}
		for _, f := range p.Fragments {
			if !f.IsEmpty() {
				frags = append(frags, f)
			}
		}
	}
	return frags
}

func (m pagerModel) cursorFragment() *document.Fragment {
	if m.cursor < 0 || m.cursor >= len(m.frags) {
		return nil
	}
	return m.frags[m.cursor]
}

func (m *pagerModel) render() {
	if m.doc == nil || m.viewport.Width == 0 {
		return
	}

	highlight := lipgloss.NewStyle().
		Background(lipgloss.Color(m.common.cfg.HighlightColor)).
		Foreground(lipgloss.Color("0"))

	width := m.viewport.Width
	if mw := int(m.common.cfg.MaxWidth); mw > 0 { //nolint:gosec
		width = min(width, mw)
	}

	m.layout = renderDocument(m.doc, renderOptions{
		width:       width,
		pageHeaders: m.common.cfg.ShowPageHeaders,
		cursor:      m.cursorFragment(),
		highlighted: m.hl.isHighlighted,
		highlight:   highlight,
	})
	m.viewport.SetContent(m.layout.content)
}

// moveCursor moves the designation cursor and keeps it in view.
func (m *pagerModel) moveCursor(to int) {
	if len(m.frags) == 0 {
		return
	}
	m.cursor = max(0, min(to, len(m.frags)-1))
	m.render()

	line, ok := m.layout.lines[m.cursorFragment()]
	if !ok {
		return
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

// followReading scrolls so the fragment being read sits in the upper third
// of the viewport.
func (m *pagerModel) followReading() {
	f := m.hl.current()
	if f == nil {
		return
	}
	line, ok := m.layout.lines[f]
	if !ok {
		return
	}
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(line-m.viewport.Height/3, 0))
	}
}

func (m *pagerModel) startReading() tea.Cmd {
	f := m.cursorFragment()
	if m.reader == nil || f == nil {
		return nil
	}

	if err := m.reader.Start(m.common.opts.Context, f); err != nil {
		log.Debug("start refused", "fragment", f.ID(), "error", err)
		msg := "Unable to start: " + err.Error()
		switch {
		case errors.Is(err, reading.ErrAlreadyReading):
			msg = "Already reading"
		case errors.Is(err, reading.ErrStopping):
			msg = "Still stopping, try again"
		}
		return m.showStatusMessage(pagerStatusMessage{msg, true})
	}

	m.status.update(m.reader.Snapshot())
	return m.spinner.Tick
}

func (m *pagerModel) stopReading() {
	if m.reader == nil {
		return
	}
	if err := m.reader.Stop(); err != nil {
		log.Error("stop failed", "error", err)
	}
	m.status.update(m.reader.Snapshot())
}

func (m *pagerModel) unload() {
	log.Debug("unload")
	if m.showHelp {
		m.toggleHelp()
	}
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.stopReading()
	m.state = pagerStateBrowse
	m.unwatchFile()
}

func (m pagerModel) update(msg tea.Msg) (pagerModel, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case keyEsc:
			if m.state != pagerStateBrowse {
				m.state = pagerStateBrowse
				return m, nil
			}
			if m.showHelp {
				m.toggleHelp()
				return m, nil
			}
			m.stopReading()
			return m, nil

		case "j", "down":
			m.moveCursor(m.cursor + 1)
			return m, nil
		case "k", "up":
			m.moveCursor(m.cursor - 1)
			return m, nil
		case "home", "g":
			m.moveCursor(0)
			m.viewport.GotoTop()
			return m, nil
		case "end", "G":
			m.moveCursor(len(m.frags) - 1)
			m.viewport.GotoBottom()
			return m, nil

		case "enter":
			return m, m.startReading()
		case " ":
			if m.reader != nil && m.reader.State() == reading.StateReading {
				m.stopReading()
				return m, nil
			}
			return m, m.startReading()
		case "s":
			m.stopReading()
			return m, nil

		case "n":
			if f := m.hl.current(); f != nil {
				if i, ok := m.fragIndex[f]; ok {
					m.moveCursor(i)
				}
			}
			return m, nil

		case "t":
			m.follow = !m.follow
			note := "Follow reading off"
			if m.follow {
				note = "Follow reading on"
				m.followReading()
			}
			return m, m.showStatusMessage(pagerStatusMessage{note, false})

		case "/":
			m.searching = true
			m.search.Reset()
			return m, m.search.Focus()

		case "c":
			if m.lastChunk == "" {
				return m, m.showStatusMessage(pagerStatusMessage{"Nothing read yet", false})
			}
			if err := clipboard.WriteAll(m.lastChunk); err != nil {
				return m, m.showStatusMessage(pagerStatusMessage{"Copy failed: " + err.Error(), true})
			}
			return m, m.showStatusMessage(pagerStatusMessage{"Copied current chunk", false})

		case "e":
			if m.common.cfg.Path == "" {
				return m, nil
			}
			m.stopReading()
			return m, openEditor(m.common.cfg.Path)

		case "r":
			if m.common.cfg.Path == "" {
				return m, nil
			}
			return m, m.loadDocument()

		case "?":
			m.toggleHelp()
			return m, nil
		}

	case documentLoadedMsg:
		if err := m.setDocument(msg.doc); err != nil {
			return m, func() tea.Msg { return errMsg{err} }
		}
		m.render()
		log.Info("document loaded", "title", msg.doc.Title, "pages", msg.doc.NumPages())
		if m.watcher != nil && !m.watching {
			m.watching = true
			cmds = append(cmds, m.watchFile)
		}
		return m, tea.Batch(cmds...)

	// The file was changed on disk and we're reloading it
	case reloadMsg:
		cmds = append(cmds, m.loadDocument(), m.watchFile)
		return m, tea.Batch(cmds...)

	case editorFinishedMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(pagerStatusMessage{"Editor failed: " + msg.err.Error(), true})
		}
		return m, m.loadDocument()

	case highlightChangedMsg:
		m.render()
		if m.follow {
			m.followReading()
		}
		return m, m.hl.wait()

	case readerStateMsg:
		if m.reader != nil {
			m.status.update(m.reader.Snapshot())
		}
		cmds = append(cmds, m.events.listen())
		if msg.to != reading.StateIdle {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case readerChunkMsg:
		m.lastChunk = msg.Text
		if m.reader != nil {
			m.status.update(m.reader.Snapshot())
		}
		return m, m.events.listen()

	case readerErrMsg:
		m.status.setError(msg.err)
		return m, m.events.listen()

	case spinner.TickMsg:
		if m.status.busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case statusMessageTimeoutMsg:
		m.state = pagerStateBrowse

	case errMsg:
		return m, m.showStatusMessage(pagerStatusMessage{msg.Error(), true})

	case tea.WindowSizeMsg:
		m.render()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m pagerModel) updateSearch(msg tea.KeyMsg) (pagerModel, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil

	case "enter":
		m.searching = false
		m.search.Blur()
		if m.doc == nil {
			return m, nil
		}

		query := m.search.Value()
		f, err := m.doc.FindFirst(query)
		if err != nil {
			return m, m.showStatusMessage(pagerStatusMessage{"No match for " + query, true})
		}
		if i, ok := m.fragIndex[f]; ok {
			m.moveCursor(i)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m pagerModel) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")

	// Footer
	if m.searching {
		fmt.Fprint(&b, truncate.String(m.search.View(), uint(max(m.common.width, 0)))) //nolint:gosec
	} else {
		m.statusBarView(&b)
	}

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}

	return b.String()
}

func (m pagerModel) statusBarView(b *strings.Builder) {
	const (
		minPercent               float64 = 0.0
		maxPercent               float64 = 1.0
		percentToStringMagnitude float64 = 100.0
	)

	showStatusMessage := m.state == pagerStateStatusMessage
	messageStyle := statusBarMessageStyle
	if m.statusMessage.isError {
		messageStyle = statusBarErrorStyle
	}

	logo := logoView()

	// Scroll percent
	percent := math.Max(minPercent, math.Min(maxPercent, m.viewport.ScrollPercent()))
	scrollPercent := fmt.Sprintf(" %3.f%% ", percent*percentToStringMagnitude)
	if showStatusMessage {
		scrollPercent = messageStyle(scrollPercent)
	} else {
		scrollPercent = statusBarScrollPosStyle(scrollPercent)
	}

	// "Help" note
	var helpNote string
	if showStatusMessage {
		helpNote = statusBarMessageHelpStyle(" ? Help ")
	} else {
		helpNote = statusBarHelpStyle(" ? Help ")
	}

	// Reading status
	readingNote := ""
	if !showStatusMessage && m.reader != nil {
		readingNote = " " + m.status.compact(m.spinner.View()) + " "
	}

	var note string
	if showStatusMessage {
		note = m.statusMessage.message
	} else if m.doc != nil {
		note = m.doc.Title
		if f := m.cursorFragment(); f != nil {
			note += fmt.Sprintf(" · page %d", f.PageNum+1)
		}
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(readingNote)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	if showStatusMessage {
		note = messageStyle(note)
	} else {
		note = statusBarNoteStyle(note)
	}

	// Empty space
	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(readingNote)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		emptySpace = messageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		readingNote,
		scrollPercent,
		helpNote,
	)
}

func (m pagerModel) helpView() (s string) {
	col1 := []string{
		"enter   read from cursor",
		"space   read / stop",
		"s/esc   stop reading",
		"n       cursor to reading",
		"t       follow reading",
		"c       copy current chunk",
		"r       reload document",
		"e       edit document",
		"q       quit",
	}

	s += "\n"
	s += "k/↑      cursor up           " + col1[0] + "\n"
	s += "j/↓      cursor down         " + col1[1] + "\n"
	s += "g/home   first line          " + col1[2] + "\n"
	s += "G/end    last line           " + col1[3] + "\n"
	s += "b/pgup   page up             " + col1[4] + "\n"
	s += "f/pgdn   page down           " + col1[5] + "\n"
	s += "u        ½ page up           " + col1[6] + "\n"
	s += "d        ½ page down         " + col1[7] + "\n"
	s += "/        find start line     " + col1[8] + "\n"

	s += "\n" + m.status.detail(m.common.width)
	if stats := m.common.opts.CacheStats; stats != nil {
		s += "\ncache     " + stats()
	}

	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.common.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			lines[i] = runewidth.FillRight(lines[i], m.common.width)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}

// COMMANDS

func (m pagerModel) loadDocument() tea.Cmd {
	path := m.common.cfg.Path
	load := m.common.opts.Load
	return func() tea.Msg {
		if load == nil {
			return errMsg{errors.New("reloading is not available")}
		}
		doc, err := load(path)
		if err != nil {
			log.Error("error loading document", "path", path, "error", err)
			return errMsg{err}
		}
		return documentLoadedMsg{doc}
	}
}
