package shader

import (
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/fsnotify/fsnotify"
)

var stageExts = []string{".vert", ".geom", ".frag", ".comp", ".glsl"}

// Watcher observes a shader directory and emits a recompile request, debounced, whenever
// a stage file is written, created or renamed. Editors tend to save in bursts, so requests
// within the debounce window collapse into one.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	requests chan string
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWatcher starts watching dir.
//
// Parameters:
//   - dir: the shader directory
//   - options: variadic list of WatcherBuilderOption functions
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the directory cannot be watched
func NewWatcher(dir string, options ...WatcherBuilderOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		debounce: 200 * time.Millisecond,
		requests: make(chan string, 1),
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	w.wg.Add(1)
	go w.loop()
	logger.Logger().Info("watching shaders", "dir", dir)
	return w, nil
}

// Requests delivers the name of the last changed file once per debounced burst. The channel
// holds at most one pending request; consumers poll it between frames.
func (w *Watcher) Requests() <-chan string {
	return w.requests
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	var last string

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !slices.Contains(stageExts, filepath.Ext(ev.Name)) {
				continue
			}
			last = filepath.Base(ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case w.requests <- last:
			default:
			}
			logger.Logger().Debug("shader change detected", "file", last)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Logger().Warn("shader watcher error", "error", err)
		}
	}
}
