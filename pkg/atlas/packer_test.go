package atlas

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestShelfPacker_InputOrder(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	green := color.NRGBA{0, 255, 0, 255}
	blue := color.NRGBA{0, 0, 255, 128}
	images := []image.Image{
		solid(4, 2, red),
		solid(3, 8, green),
		solid(5, 5, blue),
	}

	sheet, rects, err := NewShelfPacker().Pack(images)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if len(rects) != len(images) {
		t.Fatalf("expected %d rects, got %d", len(images), len(rects))
	}

	for i, img := range images {
		if rects[i].Dx() != img.Bounds().Dx() || rects[i].Dy() != img.Bounds().Dy() {
			t.Errorf("rect %d: expected %dx%d, got %v", i, img.Bounds().Dx(), img.Bounds().Dy(), rects[i])
		}
		if !rects[i].In(sheet.Bounds()) {
			t.Errorf("rect %d %v outside sheet %v", i, rects[i], sheet.Bounds())
		}
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Errorf("rects %d and %d overlap: %v %v", i, j, rects[i], rects[j])
			}
		}
	}

	// Tallest image is placed first.
	if rects[1].Min != (image.Point{}) {
		t.Errorf("expected tallest image at origin, got %v", rects[1])
	}

	wants := []color.NRGBA{red, green, blue}
	for i, want := range wants {
		got := sheet.NRGBAAt(rects[i].Min.X, rects[i].Min.Y)
		if got != want {
			t.Errorf("image %d: expected pixel %v, got %v", i, want, got)
		}
	}
}

func TestShelfPacker_Rows(t *testing.T) {
	p := &ShelfPacker{MaxWidth: 10, MaxHeight: 100, Padding: 1}
	images := []image.Image{
		solid(6, 4, color.NRGBA{A: 255}),
		solid(6, 4, color.NRGBA{A: 255}),
	}

	sheet, rects, err := p.Pack(images)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if rects[1].Min.Y != 5 {
		t.Errorf("expected second image on next row at y=5, got %v", rects[1])
	}
	if sheet.Bounds().Dx() != 6 || sheet.Bounds().Dy() != 9 {
		t.Errorf("expected 6x9 sheet, got %v", sheet.Bounds())
	}
}

func TestShelfPacker_Overflow(t *testing.T) {
	tests := []struct {
		name   string
		p      *ShelfPacker
		images []image.Image
	}{
		{
			name:   "too wide",
			p:      &ShelfPacker{MaxWidth: 8, MaxHeight: 8},
			images: []image.Image{solid(9, 1, color.NRGBA{})},
		},
		{
			name:   "too tall",
			p:      &ShelfPacker{MaxWidth: 8, MaxHeight: 8},
			images: []image.Image{solid(8, 5, color.NRGBA{}), solid(8, 5, color.NRGBA{})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.p.Pack(tt.images)
			if !errors.Is(err, ErrAtlasOverflow) {
				t.Errorf("expected ErrAtlasOverflow, got %v", err)
			}
		})
	}
}

func TestShelfPacker_Empty(t *testing.T) {
	sheet, rects, err := NewShelfPacker().Pack(nil)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if len(rects) != 0 {
		t.Errorf("expected no rects, got %d", len(rects))
	}
	if sheet.Bounds().Dx() != 1 || sheet.Bounds().Dy() != 1 {
		t.Errorf("expected 1x1 sheet, got %v", sheet.Bounds())
	}
}
