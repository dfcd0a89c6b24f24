package viewer

import (
	"fmt"
	"image/color"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scmlkit/internal/viewer/scene"
	"github.com/Faultbox/scmlkit/pkg/character"
)

// frameInterval caps the loop when vsync is off.
const frameInterval = time.Second / 60

// Options configures Run.
type Options struct {
	Window     WindowConfig
	Background color.NRGBA
	Zoom       float32

	// Reload delivers rebuilt characters. It may be nil.
	Reload <-chan *character.Character

	Log *zap.Logger
}

// Run opens a window and plays char until the window is closed.
// It must be called from the main thread.
func Run(char *character.Character, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	win, err := NewWindow(opts.Window, log)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := NewRenderer(opts.Background)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer r.Close()
	r.SetAtlas(char.Atlas)

	w, h := win.Size()
	sc := scene.New(char, w, h)
	if opts.Zoom > 0 {
		sc.SetZoom(opts.Zoom)
	}
	input := NewInput()

	title := ""
	last := time.Now()

	for {
		frameStart := time.Now()

		for _, a := range input.Poll() {
			if !sc.Apply(a) {
				return nil
			}
		}
		if input.Resized {
			sc.Resize(input.Width, input.Height)
		}

		select {
		case rebuilt := <-opts.Reload:
			if rebuilt != nil {
				sc.Replace(rebuilt)
				r.SetAtlas(rebuilt.Atlas)
				log.Info("reloaded character", zap.String("name", rebuilt.Name))
			}
		default:
		}

		now := time.Now()
		sc.Update(now.Sub(last))
		last = now

		if t := sc.Title(); t != title {
			title = t
			win.SetTitle(title)
		}

		sw, sh := sc.Size()
		dw, dh := win.DrawableSize()
		r.Draw(sc.Vertices(), sw, sh, dw, dh)
		win.SwapBuffers()

		if !opts.Window.VSync {
			if rest := frameInterval - time.Since(frameStart); rest > 0 {
				sdl.Delay(uint32(rest / time.Millisecond))
			}
		}
	}
}
