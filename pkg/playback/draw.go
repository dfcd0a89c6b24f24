package playback

import (
	"image"
	"image/color"

	"github.com/Faultbox/scmlkit/pkg/math"
)

// DrawOp describes one sprite draw in destination space.
// The quad is Source scaled by Scale, rotated by Rotation around Origin and
// placed so that Origin lands on Position.
type DrawOp struct {
	Image    int
	Source   image.Rectangle // atlas rectangle
	Position math.Vec2
	Origin   math.Vec2 // pivot in source pixels
	Scale    math.Vec2
	Rotation float32 // radians
	Tint     color.NRGBA
	FlipX    bool
	FlipY    bool
}

// DrawList appends the draw operations for the current frame to dst and
// returns the extended slice. Flip state is applied on every call.
func (p *Player) DrawList(dst []DrawOp) []DrawOp {
	for _, s := range p.CurrentFrame() {
		rect := p.char.Rects[s.Image]
		origin := p.char.Hotspots[s.Image]
		offset := s.Offset
		rotation := s.Angle

		if p.FlipX {
			offset.X = -offset.X
			origin.X = float32(rect.Dx()) - origin.X
		}
		if p.FlipY {
			offset.Y = -offset.Y
			origin.Y = float32(rect.Dy()) - origin.Y
		}
		// Mirroring one axis reverses the sense of rotation.
		if p.FlipX != p.FlipY {
			rotation = -rotation
		}

		dst = append(dst, DrawOp{
			Image:    s.Image,
			Source:   rect,
			Position: p.Position.Add(offset),
			Origin:   origin,
			Scale:    s.Scale,
			Rotation: rotation,
			Tint:     s.Tint,
			FlipX:    s.FlipX != p.FlipX,
			FlipY:    s.FlipY != p.FlipY,
		})
	}
	return dst
}

// Corners returns the destination quad as top-left, top-right, bottom-right,
// bottom-left in source orientation. Flips are left to texture coordinates.
func (op DrawOp) Corners() [4]math.Vec2 {
	w, h := float32(op.Source.Dx()), float32(op.Source.Dy())
	local := [4]math.Vec2{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	}

	var out [4]math.Vec2
	for i, c := range local {
		out[i] = c.Sub(op.Origin).Mul(op.Scale).Rotate(op.Rotation).Add(op.Position)
	}
	return out
}

// TexCoords returns normalized atlas coordinates for the corners returned by
// Corners, with the effective flips applied.
func (op DrawOp) TexCoords(atlasW, atlasH int) [4]math.Vec2 {
	u0 := float32(op.Source.Min.X) / float32(atlasW)
	v0 := float32(op.Source.Min.Y) / float32(atlasH)
	u1 := float32(op.Source.Max.X) / float32(atlasW)
	v1 := float32(op.Source.Max.Y) / float32(atlasH)

	if op.FlipX {
		u0, u1 = u1, u0
	}
	if op.FlipY {
		v0, v1 = v1, v0
	}

	return [4]math.Vec2{
		{X: u0, Y: v0},
		{X: u1, Y: v0},
		{X: u1, Y: v1},
		{X: u0, Y: v1},
	}
}
