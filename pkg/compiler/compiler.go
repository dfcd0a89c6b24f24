// Package compiler turns a parsed SCML character into compiled character data:
// it loads the referenced images, packs them onto one atlas, resolves frame
// names into indices and converts absolute sprite sizes into atlas scale.
package compiler

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/scmlkit/pkg/atlas"
	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/math"
	"github.com/Faultbox/scmlkit/pkg/scml"
)

// Compile errors.
var (
	ErrMissingFrame   = errors.New("missing frame definition")
	ErrEmptyAnimation = errors.New("animation has no frames")
	ErrUnknownImage   = errors.New("sprite references unknown image")
)

// ImageLoader decodes a source image referenced by a document.
type ImageLoader interface {
	LoadImage(name string) (image.Image, error)
}

// Compiler builds character data from parsed documents.
type Compiler struct {
	loader   ImageLoader
	packer   atlas.Packer
	hotspots map[string]math.Vec2
	log      *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Compiler) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHotspots sets per-image pivot overrides, keyed by the image name as
// written in the document.
func WithHotspots(hotspots map[string]math.Vec2) Option {
	return func(c *Compiler) {
		c.hotspots = hotspots
	}
}

// New creates a compiler. A nil packer selects the default shelf packer.
func New(loader ImageLoader, packer atlas.Packer, opts ...Option) *Compiler {
	if packer == nil {
		packer = atlas.NewShelfPacker()
	}
	c := &Compiler{
		loader: loader,
		packer: packer,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile converts imp into character data. Any failure aborts the whole
// build; no partial character is returned.
func (c *Compiler) Compile(imp *scml.Character) (*character.Character, error) {
	out := &character.Character{Name: imp.Name}

	if err := c.buildAtlas(imp, out); err != nil {
		return nil, err
	}

	out.Animations = make([]character.Animation, 0, len(imp.Animations))
	for _, anim := range imp.Animations {
		resolved, err := resolveAnimation(imp, anim)
		if err != nil {
			return nil, err
		}
		out.Animations = append(out.Animations, resolved)
	}

	out.Frames = make([]character.Frame, 0, len(imp.Frames))
	for _, frame := range imp.Frames {
		scaled, err := scaleFrame(frame, out.Rects)
		if err != nil {
			return nil, err
		}
		out.Frames = append(out.Frames, scaled)
	}

	out.Hotspots = make([]math.Vec2, len(imp.ImageFiles))
	copy(out.Hotspots, imp.Hotspots)
	for i, name := range imp.ImageFiles {
		if h, ok := c.hotspots[name]; ok {
			out.Hotspots[i] = h
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	c.log.Debug("compiled character",
		zap.String("name", out.Name),
		zap.Int("images", len(out.Rects)),
		zap.Int("atlas_width", out.Atlas.Bounds().Dx()),
		zap.Int("atlas_height", out.Atlas.Bounds().Dy()),
		zap.Int("animations", len(out.Animations)),
		zap.Int("frames", len(out.Frames)),
	)

	return out, nil
}

// buildAtlas loads every image in first-seen order and packs them.
func (c *Compiler) buildAtlas(imp *scml.Character, out *character.Character) error {
	images := make([]image.Image, 0, len(imp.ImageFiles))
	for _, name := range imp.ImageFiles {
		img, err := c.loader.LoadImage(name)
		if err != nil {
			return fmt.Errorf("loading image %q: %w", name, err)
		}
		c.log.Debug("loaded image", zap.String("image", name),
			zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
		images = append(images, img)
	}

	sheet, rects, err := c.packer.Pack(images)
	if err != nil {
		return fmt.Errorf("packing atlas for %q: %w", imp.Name, err)
	}
	if len(rects) != len(images) {
		return fmt.Errorf("packing atlas for %q: got %d rectangles for %d images", imp.Name, len(rects), len(images))
	}

	out.Atlas = sheet
	out.Rects = rects
	return nil
}

// resolveAnimation replaces frame names with frame definition indices.
func resolveAnimation(imp *scml.Character, anim scml.Animation) (character.Animation, error) {
	if len(anim.FrameNames) == 0 {
		return character.Animation{}, fmt.Errorf("%w: %q", ErrEmptyAnimation, anim.Name)
	}

	indices := make([]int, 0, len(anim.FrameNames))
	for _, name := range anim.FrameNames {
		idx, ok := imp.FrameIndex[name]
		if !ok {
			return character.Animation{}, fmt.Errorf("%w '%s' in animation %q", ErrMissingFrame, name, anim.Name)
		}
		indices = append(indices, idx)
	}

	durations := make([]float32, len(anim.Durations))
	copy(durations, anim.Durations)

	return character.Animation{
		Name:       anim.Name,
		FrameIndex: indices,
		DurationMs: durations,
	}, nil
}

// scaleFrame converts each sprite's absolute pixel size into a multiplier of
// its atlas rectangle.
func scaleFrame(frame scml.Frame, rects []image.Rectangle) (character.Frame, error) {
	sprites := make([]character.Sprite, 0, len(frame.Sprites))
	for i, s := range frame.Sprites {
		if s.Image < 0 || s.Image >= len(rects) {
			return character.Frame{}, fmt.Errorf("%w: frame %q sprite %d has image %d of %d",
				ErrUnknownImage, frame.Name, i, s.Image, len(rects))
		}
		sprites = append(sprites, character.Sprite{
			Image:  s.Image,
			Tint:   s.Tint,
			Angle:  s.Angle,
			FlipX:  s.FlipX,
			FlipY:  s.FlipY,
			Scale:  SizeToScale(s.Size, rects[s.Image]),
			Offset: s.Offset,
		})
	}
	return character.Frame{Sprites: sprites}, nil
}

// SizeToScale divides an absolute size by the rectangle size, treating a
// zero rectangle dimension as 1.
func SizeToScale(size math.Vec2, rect image.Rectangle) math.Vec2 {
	w, h := float32(rect.Dx()), float32(rect.Dy())
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return math.Vec2{X: size.X / w, Y: size.Y / h}
}
