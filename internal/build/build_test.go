package build

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/scmlkit/internal/assets"
	"github.com/Faultbox/scmlkit/internal/config"
	"github.com/Faultbox/scmlkit/pkg/atlas"
	"github.com/Faultbox/scmlkit/pkg/compiler"
	"github.com/Faultbox/scmlkit/pkg/math"
)

const doc = `<?xml version="1.0" encoding="UTF-8"?>
<spriterdata>
<char>
	<name>Slime</name>
	<anim>
		<name>Bounce</name>
		<frame><name>Up</name><duration>10</duration></frame>
		<frame><name>Down</name><duration>10</duration></frame>
	</anim>
</char>
<frame>
	<name>Up</name>
	<sprite><image>slime\up.png</image><width>16</width><height>24</height></sprite>
</frame>
<frame>
	<name>Down</name>
	<sprite><image>slime\down.png</image><width>16</width><height>8</height></sprite>
</frame>
</spriterdata>`

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func setup(t *testing.T) (string, config.BuildConfig) {
	t.Helper()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "slime.scml")
	if err := os.WriteFile(docPath, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	writeImage(t, filepath.Join(dir, "slime", "up.png"), 16, 12)
	writeImage(t, filepath.Join(dir, "slime", "down.png"), 16, 8)

	cfg := config.Default().Build
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ImageRoots = nil
	return docPath, cfg
}

func TestCompile(t *testing.T) {
	docPath, cfg := setup(t)
	cfg.Hotspots = map[string]math.Vec2{`slime\down.png`: {X: 8, Y: 8}}

	char, err := New(cfg, nil).Compile(docPath)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if char.Name != "Slime" || len(char.Animations) != 1 || len(char.Rects) != 2 {
		t.Fatalf("char = %q, %d animations, %d rects", char.Name, len(char.Animations), len(char.Rects))
	}
	if got := char.Frames[0].Sprites[0].Scale; got != (math.Vec2{X: 1, Y: 2}) {
		t.Errorf("Up scale = %v, want {1 2}", got)
	}
	if char.Hotspots[1] != (math.Vec2{X: 8, Y: 8}) {
		t.Errorf("Down hotspot = %v, want {8 8}", char.Hotspots[1])
	}
}

func TestBuildAndLoad(t *testing.T) {
	docPath, cfg := setup(t)
	b := New(cfg, nil)

	path, err := b.Build(docPath)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if filepath.Dir(path) != cfg.OutputDir {
		t.Errorf("descriptor written to %s, want %s", path, cfg.OutputDir)
	}

	stored, err := b.Load(path)
	if err != nil {
		t.Fatalf("Load(descriptor) failed: %v", err)
	}
	compiled, err := b.Load(docPath)
	if err != nil {
		t.Fatalf("Load(document) failed: %v", err)
	}

	if stored.Name != compiled.Name || len(stored.Frames) != len(compiled.Frames) {
		t.Errorf("stored %q/%d frames, compiled %q/%d frames",
			stored.Name, len(stored.Frames), compiled.Name, len(compiled.Frames))
	}
	if stored.Atlas.Bounds() != compiled.Atlas.Bounds() {
		t.Errorf("atlas bounds %v vs %v", stored.Atlas.Bounds(), compiled.Atlas.Bounds())
	}
}

func TestCompileReusesImages(t *testing.T) {
	docPath, cfg := setup(t)
	b := New(cfg, nil)

	for i := 0; i < 2; i++ {
		if _, err := b.Compile(docPath); err != nil {
			t.Fatalf("Compile %d failed: %v", i, err)
		}
	}
	hits, misses := b.manager(docPath).Cache().Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("Stats = %d hits, %d misses, want 2, 2", hits, misses)
	}

	// A changed image is picked up only after invalidation.
	up := filepath.Join(filepath.Dir(docPath), "slime", "up.png")
	writeImage(t, up, 16, 24)
	if n := b.Invalidate(up); n != 1 {
		t.Fatalf("Invalidate dropped %d entries, want 1", n)
	}
	char, err := b.Compile(docPath)
	if err != nil {
		t.Fatalf("Compile after invalidation failed: %v", err)
	}
	if got := char.Frames[0].Sprites[0].Scale; got != (math.Vec2{X: 1, Y: 1}) {
		t.Errorf("Up scale = %v, want {1 1} from the rewritten image", got)
	}
}

func TestRootsPriority(t *testing.T) {
	cfg := config.BuildConfig{ImageRoots: []string{"/shared/art"}}
	roots := New(cfg, nil).Roots("/work/hero/hero.scml")

	if len(roots) != 2 || roots[0] != "/shared/art" || roots[1] != "/work/hero" {
		t.Errorf("Roots = %v", roots)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		docPath, cfg := setup(t)
		if err := os.Remove(filepath.Join(filepath.Dir(docPath), "slime", "down.png")); err != nil {
			t.Fatal(err)
		}
		if _, err := New(cfg, nil).Build(docPath); !errors.Is(err, assets.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("atlas overflow", func(t *testing.T) {
		docPath, cfg := setup(t)
		cfg.AtlasMaxWidth = 8
		if _, err := New(cfg, nil).Build(docPath); !errors.Is(err, atlas.ErrAtlasOverflow) {
			t.Errorf("err = %v, want ErrAtlasOverflow", err)
		}
	})

	t.Run("missing frame", func(t *testing.T) {
		dir := t.TempDir()
		docPath := filepath.Join(dir, "bad.scml")
		bad := `<spriterdata><char><name>X</name><anim><name>A</name>
<frame><name>Nope</name><duration>1</duration></frame></anim></char></spriterdata>`
		if err := os.WriteFile(docPath, []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := New(config.Default().Build, nil).Build(docPath); !errors.Is(err, compiler.ErrMissingFrame) {
			t.Errorf("err = %v, want ErrMissingFrame", err)
		}
	})
}
