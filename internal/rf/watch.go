package rf

import (
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/qualitylab/p1203go/internal/log"
)

// Watcher holds an Ensemble loaded from a directory of tree*.csv files and
// hot-reloads it when that directory changes, following the teacher's
// debounced fsnotify config-reload pattern. An implementation may cache the
// ensemble across sessions; Watcher is the concrete form that takes.
type Watcher struct {
	dir      string
	current  atomic.Pointer[Ensemble]
	watcher  *fsnotify.Watcher
	stopped  chan struct{}
	debounce time.Duration
}

// WatchEnsemble loads the ensemble at dir and starts watching it for
// changes. Call Stop to release the underlying fsnotify watcher.
func WatchEnsemble(dir string) (*Watcher, error) {
	ens, err := LoadEnsemble(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{dir: dir, stopped: make(chan struct{}), debounce: 500 * time.Millisecond}
	w.current.Store(ens)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w.watcher = fw

	go w.loop()
	return w, nil
}

// Ensemble returns the currently loaded ensemble.
func (w *Watcher) Ensemble() *Ensemble {
	return w.current.Load()
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopped)
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopped:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.L().Warn().Err(err).Str("dir", w.dir).Msg("tree ensemble watcher error")
		}
	}
}

func (w *Watcher) reload() {
	ens, err := LoadEnsemble(w.dir)
	if err != nil {
		log.L().Warn().Err(err).Str("dir", w.dir).Msg("failed to reload tree ensemble, keeping previous version")
		return
	}
	w.current.Store(ens)
	log.L().Info().Str("dir", w.dir).Int("trees", len(ens.Trees)).Msg("reloaded tree ensemble")
}
