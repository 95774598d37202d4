package loader

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/logger"
)

// Watcher reports model files that changed on disk. Editors often write a
// file in several steps, so changes are coalesced for Settle before being
// reported.
type Watcher struct {
	Settle time.Duration

	w       *fsnotify.Watcher
	changed chan string
	errs    chan error
	files   map[string]bool
	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
	log     *zap.Logger
}

// NewWatcher starts a watcher. Close stops it.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		Settle:  200 * time.Millisecond,
		w:       w,
		changed: make(chan string, 16),
		errs:    make(chan error, 1),
		files:   make(map[string]bool),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
		log:     logger.Named("watch"),
	}
	go fw.loop()
	return fw, nil
}

// Add watches path. The parent directory is watched so that files replaced
// by rename are still seen.
func (fw *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fw.mu.Lock()
	fw.files[abs] = true
	fw.mu.Unlock()
	return fw.w.Add(filepath.Dir(abs))
}

// Changed delivers absolute paths of watched files after they settle.
func (fw *Watcher) Changed() <-chan string { return fw.changed }

// Errors delivers watcher failures.
func (fw *Watcher) Errors() <-chan error { return fw.errs }

// Close stops watching.
func (fw *Watcher) Close() error {
	close(fw.done)
	fw.mu.Lock()
	for _, t := range fw.pending {
		t.Stop()
	}
	fw.mu.Unlock()
	return fw.w.Close()
}

func (fw *Watcher) loop() {
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.touch(ev.Name)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			default:
				fw.log.Warn("watch error dropped", zap.Error(err))
			}
		case <-fw.done:
			return
		}
	}
}

func (fw *Watcher) touch(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.files[abs] {
		return
	}
	if t, ok := fw.pending[abs]; ok {
		t.Reset(fw.Settle)
		return
	}
	fw.pending[abs] = time.AfterFunc(fw.Settle, func() {
		fw.mu.Lock()
		delete(fw.pending, abs)
		fw.mu.Unlock()
		fw.log.Debug("model file changed", zap.String("path", abs))
		select {
		case fw.changed <- abs:
		case <-fw.done:
		}
	})
}
