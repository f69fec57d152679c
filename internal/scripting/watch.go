package scripting

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changed .lua files. Its goroutine only forwards names;
// reloading is left to the game loop.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isScriptFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			default: // a reload is already pending
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

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lua"
}

// Watch starts watching the script directory.
func (e *Engine) Watch() error {
	if e.watcher != nil {
		return nil
	}
	w, err := NewWatcher(e.dir)
	if err != nil {
		return err
	}
	e.watcher = w
	e.log.Info("watching lua scripts", zap.String("dir", e.dir))
	return nil
}

// Poll drains pending file events and reloads once if there were any. It
// never blocks and reports whether a reload succeeded.
func (e *Engine) Poll() bool {
	if e.watcher == nil {
		return false
	}
	changed := false
	for {
		select {
		case name := <-e.watcher.Events:
			e.log.Debug("lua script changed", zap.String("file", name))
			changed = true
			continue
		case err := <-e.watcher.Errors:
			e.log.Warn("script watcher error", zap.Error(err))
			continue
		default:
		}
		break
	}
	return changed && e.Reload() == nil
}
