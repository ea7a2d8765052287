package serve

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkpages/mkpages/internal/logfields"
)

// Watcher watches the docs tree (plus any extra directories) and the config
// file, turning raw filesystem events into debounced rebuild and reload
// triggers.
type Watcher struct {
	fsw        *fsnotify.Watcher
	logger     *slog.Logger
	configPath string
	debounce   time.Duration

	Rebuild      chan struct{} // coalesced docs-change signal
	ConfigChange chan struct{} // coalesced config-file signal

	mu     sync.Mutex
	timer  *time.Timer
	target chan struct{}
}

// NewWatcher sets up recursive watches over the given directories and the
// directory holding configPath.
func NewWatcher(dirs []string, configPath string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		fsw:          fsw,
		logger:       logger,
		configPath:   configPath,
		debounce:     debounce,
		Rebuild:      make(chan struct{}, 1),
		ConfigChange: make(chan struct{}, 1),
	}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	if configPath != "" {
		// watch the directory; editors replace files on save
		if err := fsw.Add(filepath.Dir(configPath)); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch config dir: %w", err)
		}
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			if addErr := w.fsw.Add(p); addErr != nil {
				w.logger.Warn("watch add failed", logfields.Path(p), logfields.Error(addErr))
			}
		}
		return nil
	})
}

// Run dispatches filesystem events until the stop channel closes.
func (w *Watcher) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if w.configPath != "" && filepath.Base(ev.Name) == filepath.Base(w.configPath) {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			w.logger.Debug("config change detected", logfields.Path(ev.Name))
			w.trigger(w.ConfigChange)
		}
		return
	}
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	w.logger.Debug("file change detected",
		logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger(w.Rebuild)
}

// trigger arms the debounce timer toward the given channel. A new event
// within the window restarts the timer.
func (w *Watcher) trigger(ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil && w.target == ch {
		w.timer.Stop()
	}
	w.target = ch
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// shouldIgnore filters events that must not trigger rebuilds: hidden
// files, editor swap and backup files.
func shouldIgnore(p string) bool {
	base := filepath.Base(p)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
