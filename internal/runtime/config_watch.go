package runtime

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file on change and applies the new
// thresholds to a live Runtime. Only thresholds are hot-swappable;
// structural settings (worker count, allocation ceiling) require a
// restart and are ignored on reload.
type ConfigWatcher struct {
	w    *fsnotify.Watcher
	path string
	rt   *Runtime
}

// WatchConfig starts watching path and returns the watcher. Editors
// often replace files by rename, so the parent directory is watched and
// events are filtered by name.
func WatchConfig(path string, rt *Runtime) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{w: w, path: abs, rt: rt}
	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				log.Printf("config reload skipped: %v", err)
				continue
			}
			cw.rt.ApplyThresholds(cfg.Thresholds)
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (cw *ConfigWatcher) Close() error {
	return cw.w.Close()
}
