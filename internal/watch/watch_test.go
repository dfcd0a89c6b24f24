package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelevant(t *testing.T) {
	tests := map[string]bool{
		"hero.scml":           true,
		"HERO.SCML":           true,
		"art/body.png":        true,
		"art/legacy.bmp":      true,
		"build/hero.yaml":     false,
		"hero.scml~":          false,
		"notes.txt":           false,
		"/tmp/.hero.scml.swp": false,
	}
	for path, want := range tests {
		if got := Relevant(path); got != want {
			t.Errorf("Relevant(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherReportsDocumentWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(dir, "hero.scml")
	if err := os.WriteFile(doc, []byte("<char/>"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Events:
		if name != doc {
			t.Errorf("event for %s, want %s", name, doc)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for document write")
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("Events not closed")
	}
}
