package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads protection.yaml (and its banned words file) on change.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	timer *time.Timer
	names map[string]struct{}
	dirs  map[string]struct{}
}

// track starts watching file. Editors often replace files via rename, so
// the containing directory is watched and events are filtered by name.
func (w *Watcher) track(file string) error {
	file = filepath.Clean(file)
	dir := filepath.Dir(file)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.names[file] = struct{}{}
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = struct{}{}
	return nil
}

func (w *Watcher) tracked(file string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.names[filepath.Clean(file)]
	return ok
}

// Watch calls onChange with each successfully reloaded config and onError
// with load failures; the previous config stays in effect on error.
// Callbacks may run on any goroutine but never concurrently with each other.
// A reload that names a different banned words file starts watching it.
func Watch(path string, onChange func(Config), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:    fw,
		done:  make(chan struct{}),
		names: map[string]struct{}{},
		dirs:  map[string]struct{}{},
	}
	if err := w.track(path); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if cfg, err := Load(path); err == nil && cfg.Chat.BannedWordsFile != "" {
		if err := w.track(cfg.Chat.BannedWordsFile); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	var reloadMu sync.Mutex
	reload := func() {
		reloadMu.Lock()
		defer reloadMu.Unlock()
		cfg, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if cfg.Chat.BannedWordsFile != "" {
			if err := w.track(cfg.Chat.BannedWordsFile); err != nil && onError != nil {
				onError(fmt.Errorf("watch %s: %w", cfg.Chat.BannedWordsFile, err))
			}
		}
		onChange(cfg)
	}
	go func() {
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !w.tracked(ev.Name) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				w.mu.Lock()
				if w.timer != nil {
					w.timer.Stop()
				}
				w.timer = time.AfterFunc(reloadDebounce, reload)
				w.mu.Unlock()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if onError != nil {
					reloadMu.Lock()
					onError(err)
					reloadMu.Unlock()
				}
			}
		}
	}()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fw.Close()
	})
	return err
}
