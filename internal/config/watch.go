package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes on disk and delivers
// the parsed result. Editors that replace files (rename + create) and
// rapid double-writes are debounced.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	Configs chan Config
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// Watch starts watching the config file at path. The containing
// directory is watched, not the file itself, so atomic replacement
// keeps working.
func Watch(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		path:    path,
		Configs: make(chan Config, 4),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// debounceDelay is the quiet period after the last file event before
// the config is reloaded.
const debounceDelay = 100 * time.Millisecond

// run is the only sender on Configs and Errors and closes both when it
// exits, so Close never races a pending send.
func (w *Watcher) run() {
	defer close(w.Configs)
	defer close(w.Errors)

	// Trailing-edge debounce: each event re-arms the timer, so a burst
	// of writes (truncate+write, non-atomic copies) loads the file once,
	// after the last event, with its final contents.
	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounceDelay)
			armed = true
		case <-timer.C:
			armed = false
			cfg, err := readConfig(w.path)
			if err != nil {
				select {
				case w.Errors <- err:
				default:
				}
				continue
			}
			select {
			case w.Configs <- cfg:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
