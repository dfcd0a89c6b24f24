// Package atlas packs source images onto a single sheet.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"golang.org/x/image/draw"
)

// ErrAtlasOverflow is returned when the images do not fit on one sheet.
var ErrAtlasOverflow = errors.New("images do not fit on a single atlas")

// Default sheet limits.
const (
	DefaultMaxWidth  = 2048
	DefaultMaxHeight = 2048
)

// Packer combines images into one sheet. The returned rectangles are in the
// same order as the input images.
type Packer interface {
	Pack(images []image.Image) (*image.NRGBA, []image.Rectangle, error)
}

// ShelfPacker places images left to right in rows, tallest first.
type ShelfPacker struct {
	MaxWidth  int
	MaxHeight int
	Padding   int // transparent gap between neighbours
}

// NewShelfPacker returns a packer with the default sheet limits.
func NewShelfPacker() *ShelfPacker {
	return &ShelfPacker{MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight}
}

// Pack implements Packer.
func (p *ShelfPacker) Pack(images []image.Image) (*image.NRGBA, []image.Rectangle, error) {
	if len(images) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil, nil
	}

	maxW, maxH := p.MaxWidth, p.MaxHeight
	if maxW <= 0 {
		maxW = DefaultMaxWidth
	}
	if maxH <= 0 {
		maxH = DefaultMaxHeight
	}

	order := make([]int, len(images))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return images[order[a]].Bounds().Dy() > images[order[b]].Bounds().Dy()
	})

	rects := make([]image.Rectangle, len(images))
	currentX, currentY := 0, 0
	rowHeight := 0
	sheetW, sheetH := 0, 0

	for _, idx := range order {
		w := images[idx].Bounds().Dx()
		h := images[idx].Bounds().Dy()
		if w > maxW {
			return nil, nil, fmt.Errorf("%w: image %d is %dpx wide, limit %d", ErrAtlasOverflow, idx, w, maxW)
		}

		if currentX > 0 && currentX+w > maxW {
			currentX = 0
			currentY += rowHeight + p.Padding
			rowHeight = 0
		}

		rects[idx] = image.Rect(currentX, currentY, currentX+w, currentY+h)

		currentX += w + p.Padding
		if h > rowHeight {
			rowHeight = h
		}
		if right := rects[idx].Max.X; right > sheetW {
			sheetW = right
		}
		if bottom := currentY + rowHeight; bottom > sheetH {
			sheetH = bottom
		}
		if sheetH > maxH {
			return nil, nil, fmt.Errorf("%w: sheet needs %dpx height, limit %d", ErrAtlasOverflow, sheetH, maxH)
		}
	}

	if sheetW == 0 {
		sheetW = 1
	}
	if sheetH == 0 {
		sheetH = 1
	}

	sheet := image.NewNRGBA(image.Rect(0, 0, sheetW, sheetH))
	for i, img := range images {
		draw.Draw(sheet, rects[i], img, img.Bounds().Min, draw.Src)
	}

	return sheet, rects, nil
}
