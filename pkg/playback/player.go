// Package playback drives a compiled character: it selects an animation,
// advances it over time and exposes the current frame for rendering.
//
// A Player owns its own mutable state and is not safe for concurrent use.
// Any number of players may share one character.Character.
package playback

import (
	"time"

	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/math"
)

// Player is one animated instance of a character.
type Player struct {
	char *character.Character

	anim    int // -1 when the character has no animations
	step    int
	tic     time.Duration
	hold    time.Duration
	frameID int

	// Instance transform applied on top of every sprite.
	FlipX    bool
	FlipY    bool
	Position math.Vec2
}

// New creates a player positioned on the first animation, if any.
func New(char *character.Character) *Player {
	p := &Player{char: char, anim: -1, frameID: -1}
	if len(char.Animations) > 0 {
		p.SetAnimation(0)
	}
	return p
}

// Character returns the shared character data.
func (p *Player) Character() *character.Character {
	return p.char
}

// Name returns the character name.
func (p *Player) Name() string {
	return p.char.Name
}

// Animation returns the current animation index, or -1 if none is selected.
func (p *Player) Animation() int {
	return p.anim
}

// AnimationCount returns the number of animations.
func (p *Player) AnimationCount() int {
	return len(p.char.Animations)
}

// AnimationName returns the current animation name, or "" if none is selected.
func (p *Player) AnimationName() string {
	if p.anim < 0 {
		return ""
	}
	return p.char.Animations[p.anim].Name
}

// SetAnimation restarts playback on animation i. Out-of-range indices are
// ignored and leave the state untouched.
func (p *Player) SetAnimation(i int) {
	if i < 0 || i >= len(p.char.Animations) {
		return
	}
	p.anim = i
	p.step = 0
	p.tic = 0
	p.load()
}

// NextAnimation selects the following animation, wrapping to the first.
func (p *Player) NextAnimation() {
	n := len(p.char.Animations)
	if n == 0 {
		return
	}
	p.SetAnimation((p.anim + 1) % n)
}

// Step returns the step index within the current animation.
func (p *Player) Step() int {
	return p.step
}

// FrameIndex returns the frame definition shown at the current step, or -1
// if no animation is selected.
func (p *Player) FrameIndex() int {
	return p.frameID
}

// Advance moves playback forward by elapsed. At most one step is consumed per
// call and time beyond the step's hold is discarded, so elapsed should stay
// well below the frame durations.
func (p *Player) Advance(elapsed time.Duration) {
	if p.anim < 0 {
		return
	}

	p.tic += elapsed
	if p.tic > p.hold {
		p.tic = 0
		p.step = (p.step + 1) % p.char.Animations[p.anim].Len()
		p.load()
	}
}

// CurrentFrame returns the sprites of the current frame. The slice is shared
// with the character and must not be modified.
func (p *Player) CurrentFrame() []character.Sprite {
	if p.frameID < 0 {
		return nil
	}
	return p.char.Frames[p.frameID].Sprites
}

func (p *Player) load() {
	a := &p.char.Animations[p.anim]
	p.hold = a.Duration(p.step)
	p.frameID = a.FrameAt(p.step)
}
