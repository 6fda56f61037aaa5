package ui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

func (m *pagerModel) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}
}

// watchFile blocks until the document file is written or recreated.
func (m *pagerModel) watchFile() tea.Msg {
	if m.watcher == nil {
		return nil
	}
	dir := m.localDir()
	path, err := filepath.Abs(m.common.cfg.Path)
	if err != nil {
		path = m.common.cfg.Path
	}

	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return nil
	}

	log.Info("fsnotify watching dir", "dir", dir)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func (m *pagerModel) unwatchFile() {
	if m.watcher == nil {
		return
	}
	dir := m.localDir()

	err := m.watcher.Remove(dir)
	if err == nil {
		log.Debug("fsnotify dir unwatched", "dir", dir)
	} else {
		log.Error("fsnotify fail to unwatch dir", "dir", dir, "error", err)
	}
}

func (m *pagerModel) localDir() string {
	dir, err := filepath.Abs(filepath.Dir(m.common.cfg.Path))
	if err != nil {
		return filepath.Dir(m.common.cfg.Path)
	}
	return dir
}
