// Package scml parses Spriter beta character documents (.scml) into an
// unresolved import model. Names are cross-referenced later by the compiler.
package scml

import (
	"image/color"

	"github.com/Faultbox/scmlkit/pkg/math"
)

// Character is a parsed but unresolved character document.
type Character struct {
	Name       string
	Animations []Animation
	Frames     []Frame

	// ImageFiles lists each distinct image filename in first-seen order.
	ImageFiles []string
	// Hotspots is index-aligned with ImageFiles.
	Hotspots []math.Vec2

	// ImageIndex maps an image filename to its slot in ImageFiles.
	ImageIndex map[string]int
	// FrameIndex maps a frame definition name to its slot in Frames.
	FrameIndex map[string]int
}

// NewCharacter returns an empty character with its lookup maps allocated.
func NewCharacter() *Character {
	return &Character{
		ImageIndex: make(map[string]int),
		FrameIndex: make(map[string]int),
	}
}

// InternImage returns the index of filename, assigning the next slot the
// first time a name is seen.
func (c *Character) InternImage(filename string) int {
	if idx, ok := c.ImageIndex[filename]; ok {
		return idx
	}
	idx := len(c.ImageFiles)
	c.ImageIndex[filename] = idx
	c.ImageFiles = append(c.ImageFiles, filename)
	c.Hotspots = append(c.Hotspots, math.Vec2{})
	return idx
}

// Animation is a named sequence of frame references.
// FrameNames and Durations are parallel and always the same length.
type Animation struct {
	Name       string
	FrameNames []string
	Durations  []float32 // milliseconds
}

// Frame is a named frame definition.
type Frame struct {
	Name    string
	Sprites []SpriteDesc
}

// SpriteDesc is a sprite placement before atlas resolution.
type SpriteDesc struct {
	Image  int         // index into Character.ImageFiles
	Tint   color.NRGBA // color and opacity
	Angle  float32     // radians in (-pi, pi], already negated
	FlipX  bool
	FlipY  bool
	Size   math.Vec2 // absolute pixel size
	Offset math.Vec2 // offset from the frame anchor
}
