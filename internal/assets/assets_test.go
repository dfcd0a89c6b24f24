package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadImageBackslashName(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "hero", "body.png"), 4, 6)

	m := NewManager(root)
	img, err := m.LoadImage(`hero\body.png`)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 6 {
		t.Errorf("bounds = %v, want 4x6", img.Bounds())
	}
}

func TestLoadImagePriority(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writePNG(t, filepath.Join(low, "a.png"), 1, 1)
	writePNG(t, filepath.Join(high, "a.png"), 2, 2)
	writePNG(t, filepath.Join(low, "only_low.png"), 3, 3)

	m := NewManager(low, high)

	img, err := m.LoadImage("a.png")
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("width = %d, want 2 (later root wins)", img.Bounds().Dx())
	}

	img, err = m.LoadImage("only_low.png")
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Errorf("width = %d, want 3", img.Bounds().Dx())
	}
}

func TestLoadImageCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.png")
	writePNG(t, path, 2, 2)

	m := NewManager(root)
	if _, err := m.LoadImage("a.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.LoadImage("a.png"); err != nil {
		t.Fatal(err)
	}

	hits, misses := m.Cache().Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses, want 1, 1", hits, misses)
	}

	// Replace the file; the cached copy is served until invalidated.
	writePNG(t, path, 5, 5)
	img, _ := m.LoadImage("a.png")
	if img.Bounds().Dx() != 2 {
		t.Errorf("width = %d, want cached 2", img.Bounds().Dx())
	}

	m.Invalidate("a.png")
	img, err := m.LoadImage("a.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("width = %d, want reloaded 5", img.Bounds().Dx())
	}
}

func TestInvalidatePath(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	other := t.TempDir()
	writePNG(t, filepath.Join(low, "hero", "body.png"), 2, 2)
	writePNG(t, filepath.Join(other, "abs.png"), 3, 3)
	absName := filepath.Join(other, "abs.png")

	m := NewManager(low, high)
	for _, name := range []string{`hero\body.png`, absName} {
		if _, err := m.LoadImage(name); err != nil {
			t.Fatalf("LoadImage(%q) failed: %v", name, err)
		}
	}

	if n := m.InvalidatePath(filepath.Join(other, "unrelated.png")); n != 0 {
		t.Errorf("unrelated path dropped %d entries", n)
	}

	// A file appearing in a higher-priority root replaces the cached copy.
	writePNG(t, filepath.Join(high, "hero", "body.png"), 6, 6)
	if n := m.InvalidatePath(filepath.Join(high, "hero", "body.png")); n != 1 {
		t.Errorf("InvalidatePath dropped %d entries, want 1", n)
	}
	img, err := m.LoadImage(`hero\body.png`)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("width = %d, want 6 from the higher root", img.Bounds().Dx())
	}

	if n := m.InvalidatePath(absName); n != 1 {
		t.Errorf("InvalidatePath(absolute) dropped %d entries, want 1", n)
	}
	if m.Cache().Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Cache().Len())
	}
}

func TestLoadImageBMP(t *testing.T) {
	root := t.TempDir()
	f, err := os.Create(filepath.Join(root, "old.bmp"))
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 7, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := NewManager(root).LoadImage("old.bmp")
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 7 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v, want 7x3", img.Bounds())
	}
}

func TestLoadImageErrors(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad.png"), []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root)

	if _, err := m.LoadImage("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if _, err := m.LoadImage(root); !errors.Is(err, ErrNotFound) {
		t.Errorf("absolute directory: err = %v, want ErrNotFound", err)
	}
	if _, err := m.LoadImage("bad.png"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("bad: err = %v, want decode error", err)
	}
	if m.Cache().Len() != 0 {
		t.Errorf("failed loads were cached")
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.png":       true,
		"b.JPG":       true,
		"c.webp":      true,
		"d.bmp":       true,
		"hero.scml":   false,
		"notes.txt":   false,
		"noextension": false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}
