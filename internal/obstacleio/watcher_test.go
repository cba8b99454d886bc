package obstacleio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orcacrowd/orca-sim/internal/obstacle"
)

func writeScene(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestInitialLoadPopulatesModel(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "wall.json", `[{"closed":false,"points":[{"x":0,"y":0},{"x":5,"y":0}]}]`)

	model := obstacle.NewModel()
	w, err := NewWatcher(dir, model)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if got := len(model.Edges()); got != 1 {
		t.Fatalf("expected 1 edge after initial load, got %d", got)
	}
}

func TestClosedPolylineWrapsAround(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "box.json", `[{"closed":true,"points":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1},{"x":0,"y":1}]}]`)

	model := obstacle.NewModel()
	w, err := NewWatcher(dir, model)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if got := len(model.Edges()); got != 4 {
		t.Fatalf("expected 4 edges for a closed quad, got %d", got)
	}
}

func TestHotReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "wall.json", `[{"closed":false,"points":[{"x":0,"y":0},{"x":5,"y":0}]}]`)

	model := obstacle.NewModel()
	w, err := NewWatcher(dir, model)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	w.Run()

	writeScene(t, dir, "wall.json", `[{"closed":false,"points":[{"x":0,"y":0},{"x":5,"y":0},{"x":10,"y":0}]}]`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(model.Edges()) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected 2 edges after hot reload, got %d", len(model.Edges()))
}
