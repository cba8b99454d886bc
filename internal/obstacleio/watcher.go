// Package obstacleio hot-reloads obstacle geometry from a directory of JSON
// polyline files, using fsnotify to watch for edits made by an external
// editing tool while the simulator keeps running.
package obstacleio

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/orcacrowd/orca-sim/internal/obstacle"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// polyline is one obstacle chain as stored on disk. Closed polylines also
// connect their last point back to their first.
type polyline struct {
	Closed bool      `json:"closed"`
	Points []point2D `json:"points"`
}

type point2D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Watcher reloads every *.json file in a directory into an obstacle.Model
// on startup and on every subsequent write, via fsnotify. It never calls
// Model.RebuildObstacles itself — that stays a lazy, tick-boundary concern
// for the caller driven by Model.Dirty (spec §6).
type Watcher struct {
	dir   string
	model *obstacle.Model
	fsw   *fsnotify.Watcher
	done  chan struct{}
	mu    sync.Mutex
}

// NewWatcher creates a Watcher over dir and performs an initial synchronous
// load before returning.
func NewWatcher(dir string, model *obstacle.Model) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("obstacleio: creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("obstacleio: watching %s: %w", dir, err)
	}

	w := &Watcher{dir: dir, model: model, fsw: fsw, done: make(chan struct{})}
	if err := w.reload(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run starts the background event loop. Call Close to stop it.
func (w *Watcher) Run() {
	go func() {
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".json") {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := w.reload(); err != nil {
					log.Printf("obstacleio: reload after %s: %v", ev.Name, err)
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				log.Printf("obstacleio: watch error: %v", err)
			case <-w.done:
				return
			}
		}
	}()
}

// Close stops the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) reload() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("obstacleio: reading %s: %w", w.dir, err)
	}

	var polylines []polyline
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("obstacleio: reading %s: %w", e.Name(), err)
		}
		var fromFile []polyline
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return fmt.Errorf("obstacleio: parsing %s: %w", e.Name(), err)
		}
		polylines = append(polylines, fromFile...)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.model.ClearObstacles()
	for _, pl := range polylines {
		n := len(pl.Points)
		if n < 2 {
			continue
		}
		last := n - 1
		if pl.Closed {
			last = n
		}
		for i := 0; i < last; i++ {
			j := (i + 1) % n
			p1 := vecmath.Vec2{X: pl.Points[i].X, Y: pl.Points[i].Y}
			p2 := vecmath.Vec2{X: pl.Points[j].X, Y: pl.Points[j].Y}
			w.model.AddObstacle(p1, p2)
		}
	}
	return nil
}
