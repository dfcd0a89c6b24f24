package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/scmlkit/internal/viewer/scene"
)

// Input turns SDL events into scene actions.
type Input struct {
	actions []scene.Action

	// Set when the last poll saw a window resize.
	Resized       bool
	Width, Height int
}

// NewInput creates a new input handler.
func NewInput() *Input {
	return &Input{actions: make([]scene.Action, 0, 8)}
}

// Poll drains the SDL event queue and returns the actions it produced.
// The slice is reused by the next call.
func (i *Input) Poll() []scene.Action {
	i.actions = i.actions[:0]
	i.Resized = false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.actions = append(i.actions, scene.ActionQuit)

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.Resized = true
				i.Width, i.Height = int(e.Data1), int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN {
				continue
			}
			if a := keyAction(e.Keysym.Scancode, e.Repeat != 0); a != scene.ActionNone {
				i.actions = append(i.actions, a)
			}
		}
	}

	return i.actions
}

// keyAction maps a pressed key to an action. Only movement keys repeat.
func keyAction(key sdl.Scancode, repeat bool) scene.Action {
	switch key {
	case sdl.SCANCODE_LEFT:
		return scene.ActionMoveLeft
	case sdl.SCANCODE_RIGHT:
		return scene.ActionMoveRight
	case sdl.SCANCODE_UP:
		return scene.ActionMoveUp
	case sdl.SCANCODE_DOWN:
		return scene.ActionMoveDown
	}

	if repeat {
		return scene.ActionNone
	}

	switch key {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return scene.ActionQuit
	case sdl.SCANCODE_SPACE, sdl.SCANCODE_N:
		return scene.ActionNextAnimation
	case sdl.SCANCODE_B:
		return scene.ActionPrevAnimation
	case sdl.SCANCODE_F:
		return scene.ActionToggleFlipX
	case sdl.SCANCODE_V:
		return scene.ActionToggleFlipY
	case sdl.SCANCODE_P:
		return scene.ActionTogglePause
	case sdl.SCANCODE_R:
		return scene.ActionReset
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		return scene.ActionZoomIn
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		return scene.ActionZoomOut
	}
	return scene.ActionNone
}
