package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/reading"
)

type (
	readerStateMsg struct {
		from, to reading.StateType
	}
	readerChunkMsg reading.ChunkEvent
	readerErrMsg   struct{ err error }
)

// events carries reader callbacks into the Bubble Tea loop. Sends never
// block; the model re-reads the reader's snapshot on every message, so a
// dropped event only delays a repaint.
type events chan tea.Msg

func newEvents() events {
	return make(events, 64)
}

func (e events) send(msg tea.Msg) {
	select {
	case e <- msg:
	default:
	}
}

func (e events) attach(r *reading.Reader) {
	r.OnStateChange(func(from, to reading.StateType) {
		e.send(readerStateMsg{from, to})
	})
	r.OnChunk(func(ev reading.ChunkEvent) {
		e.send(readerChunkMsg(ev))
	})
	r.OnError(func(err error) {
		e.send(readerErrMsg{err})
	})
}

func (e events) listen() tea.Cmd {
	return func() tea.Msg {
		return <-e
	}
}
