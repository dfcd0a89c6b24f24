// Package character holds the compiled, index-based character data consumed
// at playback time. A Character is immutable once built and may be shared by
// any number of players.
package character

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/Faultbox/scmlkit/pkg/math"
)

// ErrInvalidCharacter reports a compiled character that breaks an index invariant.
var ErrInvalidCharacter = errors.New("invalid character data")

// Character is a compiled character: one packed atlas plus the animation and
// frame tables that address it.
type Character struct {
	Name  string
	Atlas *image.NRGBA

	// Rects locates each source image on the atlas.
	Rects []image.Rectangle
	// Hotspots is index-aligned with Rects.
	Hotspots []math.Vec2

	Animations []Animation
	Frames     []Frame
}

// Animation is a looping sequence of frame definitions.
// FrameIndex and DurationMs are parallel.
type Animation struct {
	Name       string
	FrameIndex []int
	DurationMs []float32
}

// Len returns the number of steps.
func (a *Animation) Len() int {
	return len(a.FrameIndex)
}

// FrameAt returns the frame definition shown at step.
func (a *Animation) FrameAt(step int) int {
	return a.FrameIndex[step]
}

// Duration returns how long step is held, truncated to whole milliseconds.
func (a *Animation) Duration(step int) time.Duration {
	return time.Duration(int64(a.DurationMs[step])) * time.Millisecond
}

// Frame is a composite of sprites drawn together.
type Frame struct {
	Sprites []Sprite
}

// Sprite is one atlas image placed within a frame.
type Sprite struct {
	Image  int         // index into Rects and Hotspots
	Tint   color.NRGBA // color and opacity
	Angle  float32     // radians
	FlipX  bool
	FlipY  bool
	Scale  math.Vec2 // multiplier of the atlas rectangle size
	Offset math.Vec2 // offset from the character position
}

// Validate checks the index invariants between the tables.
func (c *Character) Validate() error {
	if len(c.Rects) != len(c.Hotspots) {
		return fmt.Errorf("%w: %d rects but %d hotspots", ErrInvalidCharacter, len(c.Rects), len(c.Hotspots))
	}

	for i := range c.Animations {
		a := &c.Animations[i]
		if a.Len() == 0 {
			return fmt.Errorf("%w: animation %q has no frames", ErrInvalidCharacter, a.Name)
		}
		if len(a.FrameIndex) != len(a.DurationMs) {
			return fmt.Errorf("%w: animation %q has %d frames and %d durations",
				ErrInvalidCharacter, a.Name, len(a.FrameIndex), len(a.DurationMs))
		}
		for step, idx := range a.FrameIndex {
			if idx < 0 || idx >= len(c.Frames) {
				return fmt.Errorf("%w: animation %q step %d references frame %d of %d",
					ErrInvalidCharacter, a.Name, step, idx, len(c.Frames))
			}
		}
	}

	for i, f := range c.Frames {
		for j, s := range f.Sprites {
			if s.Image < 0 || s.Image >= len(c.Rects) {
				return fmt.Errorf("%w: frame %d sprite %d references image %d of %d",
					ErrInvalidCharacter, i, j, s.Image, len(c.Rects))
			}
		}
	}

	return nil
}
