// Package scene holds the preview state driven by the viewer: one playing
// character instance, the keyboard actions that steer it and the vertex data
// the GPU batch draws.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/math"
	"github.com/Faultbox/scmlkit/pkg/playback"
)

// ErrInvalidColor is returned for background colors that are not #RRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// FloatsPerVertex is the vertex layout: position(2) + texcoord(2) + color(4).
const FloatsPerVertex = 8

// MoveStep is how far one arrow key press moves the instance, in pixels.
const MoveStep = 8

// Zoom limits.
const (
	MinZoom = 0.25
	MaxZoom = 8
)

// Action is a user command.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionNextAnimation
	ActionPrevAnimation
	ActionToggleFlipX
	ActionToggleFlipY
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionTogglePause
	ActionReset
	ActionZoomIn
	ActionZoomOut
)

// Scene is the viewer state.
type Scene struct {
	Player *playback.Player
	Paused bool

	zoom          float32
	width, height int
	ops           []playback.DrawOp
	verts         []float32
}

// New creates a scene showing char centered in a width x height view.
func New(char *character.Character, width, height int) *Scene {
	s := &Scene{
		Player: playback.New(char),
		zoom:   1,
		width:  width,
		height: height,
	}
	s.center()
	return s
}

// Zoom returns the view magnification.
func (s *Scene) Zoom() float32 {
	return s.zoom
}

// SetZoom changes the magnification, clamped to [MinZoom, MaxZoom]. The
// instance keeps its place on screen.
func (s *Scene) SetZoom(z float32) {
	z = min(max(z, MinZoom), MaxZoom)
	s.Player.Position = s.Player.Position.Scale(s.zoom / z)
	s.zoom = z
}

// Resize updates the view size.
func (s *Scene) Resize(width, height int) {
	s.width, s.height = width, height
}

// Size returns the view size in character pixels.
func (s *Scene) Size() (int, int) {
	return int(float32(s.width) / s.zoom), int(float32(s.height) / s.zoom)
}

// Replace swaps in a rebuilt character, keeping the instance transform and,
// when it still exists, the selected animation.
func (s *Scene) Replace(char *character.Character) {
	old := s.Player
	s.Player = playback.New(char)
	s.Player.FlipX = old.FlipX
	s.Player.FlipY = old.FlipY
	s.Player.Position = old.Position
	s.Player.SetAnimation(old.Animation())
}

// Apply performs an action. It returns false when the viewer should quit.
func (s *Scene) Apply(a Action) bool {
	p := s.Player
	switch a {
	case ActionQuit:
		return false
	case ActionNextAnimation:
		p.NextAnimation()
	case ActionPrevAnimation:
		if n := p.AnimationCount(); n > 0 {
			p.SetAnimation((p.Animation() - 1 + n) % n)
		}
	case ActionToggleFlipX:
		p.FlipX = !p.FlipX
	case ActionToggleFlipY:
		p.FlipY = !p.FlipY
	case ActionMoveLeft:
		p.Position.X -= MoveStep
	case ActionMoveRight:
		p.Position.X += MoveStep
	case ActionMoveUp:
		p.Position.Y -= MoveStep
	case ActionMoveDown:
		p.Position.Y += MoveStep
	case ActionTogglePause:
		s.Paused = !s.Paused
	case ActionZoomIn:
		s.SetZoom(s.zoom * 2)
	case ActionZoomOut:
		s.SetZoom(s.zoom / 2)
	case ActionReset:
		p.FlipX, p.FlipY = false, false
		s.center()
		p.SetAnimation(p.Animation())
	}
	return true
}

// Update advances playback unless paused.
func (s *Scene) Update(elapsed time.Duration) {
	if !s.Paused {
		s.Player.Advance(elapsed)
	}
}

// Title describes the current state for the window title.
func (s *Scene) Title() string {
	p := s.Player
	if p.Animation() < 0 {
		return fmt.Sprintf("%s - no animations", p.Name())
	}
	title := fmt.Sprintf("%s - %s (%d/%d)", p.Name(), p.AnimationName(), p.Animation()+1, p.AnimationCount())
	if s.Paused {
		title += " [paused]"
	}
	return title
}

// Vertices returns triangle vertices for the current frame. The slice is
// reused by the next call.
func (s *Scene) Vertices() []float32 {
	char := s.Player.Character()
	b := char.Atlas.Bounds()

	s.ops = s.Player.DrawList(s.ops[:0])
	s.verts = s.verts[:0]
	for _, op := range s.ops {
		s.verts = AppendQuad(s.verts, op, b.Dx(), b.Dy())
	}
	return s.verts
}

func (s *Scene) center() {
	w, h := s.Size()
	s.Player.Position = math.Vec2{X: float32(w) / 2, Y: float32(h) * 3 / 4}
}

// AppendQuad appends the two triangles of op to verts.
func AppendQuad(verts []float32, op playback.DrawOp, atlasW, atlasH int) []float32 {
	pos := op.Corners()
	uv := op.TexCoords(atlasW, atlasH)
	r := float32(op.Tint.R) / 255
	g := float32(op.Tint.G) / 255
	b := float32(op.Tint.B) / 255
	a := float32(op.Tint.A) / 255

	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		verts = append(verts, pos[i].X, pos[i].Y, uv[i].X, uv[i].Y, r, g, b, a)
	}
	return verts
}

// Ortho returns a column-major projection mapping pixel coordinates (origin
// top-left, y down) to clip space.
func Ortho(width, height int) [16]float32 {
	left, right := float32(0), float32(width)
	bottom, top := float32(height), float32(0)
	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -1, 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), 0, 1,
	}
}

// ParseColor parses a #RRGGBB background color.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
