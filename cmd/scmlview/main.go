// scmlview previews a character, compiled from a .scml document or loaded
// from a stored descriptor, in an OpenGL window.
//
// Keys: Space/N next animation, B previous, F/V flip, arrows move,
// +/- zoom, P pause, R reset, Esc/Q quit.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/scmlkit/internal/build"
	"github.com/Faultbox/scmlkit/internal/config"
	"github.com/Faultbox/scmlkit/internal/logger"
	"github.com/Faultbox/scmlkit/internal/viewer"
	"github.com/Faultbox/scmlkit/internal/viewer/scene"
	"github.com/Faultbox/scmlkit/internal/watch"
	"github.com/Faultbox/scmlkit/pkg/character"
)

func init() {
	// SDL and OpenGL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	fs := flag.NewFlagSet("scmlview", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	flags.RegisterBuild(fs)
	flags.RegisterViewer(fs)
	watchFlag := fs.Bool("watch", false, "Reload when the document or its images change")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scmlview [options] <file.scml|file.yaml>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	background, err := scene.ParseColor(cfg.Viewer.Background)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: viewer.background: %v\n", err)
		os.Exit(1)
	}

	b := build.New(cfg.Build, logger.Named("build"))
	char, err := b.Load(path)
	if err != nil {
		logger.Error("failed to load character", zap.Error(err))
		os.Exit(1)
	}

	var reload chan *character.Character
	if *watchFlag {
		reload = make(chan *character.Character, 1)
		w, err := watchSources(b, path)
		if err != nil {
			logger.Error("failed to watch sources", zap.Error(err))
			os.Exit(1)
		}
		defer w.Close()
		go rebuildLoop(b, path, w, reload)
	}

	err = viewer.Run(char, viewer.Options{
		Window: viewer.WindowConfig{
			Title:      "scmlview",
			Width:      cfg.Viewer.Width,
			Height:     cfg.Viewer.Height,
			Fullscreen: cfg.Viewer.Fullscreen,
			VSync:      cfg.Viewer.VSync,
		},
		Background: background,
		Zoom:       cfg.Viewer.Scale,
		Reload:     reload,
		Log:        logger.Named("viewer"),
	})
	if err != nil {
		logger.Error("viewer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// watchSources watches the document's directory and every existing image root.
func watchSources(b *build.Builder, path string) (*watch.Watcher, error) {
	seen := make(map[string]bool)
	var dirs []string
	for _, d := range append([]string{filepath.Dir(path)}, b.Roots(path)...) {
		abs, err := filepath.Abs(d)
		if err != nil || seen[abs] {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		seen[abs] = true
		dirs = append(dirs, abs)
	}
	return watch.New(dirs...)
}

// rebuildLoop reloads the character on every relevant change. Only the
// latest result is kept when the viewer falls behind.
func rebuildLoop(b *build.Builder, path string, w *watch.Watcher, out chan *character.Character) {
	log := logger.Named("watch")
	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			log.Debug("source changed", zap.String("path", name))
			if !watch.IsDocument(name) {
				b.Invalidate(name)
			}
			char, err := b.Load(path)
			if err != nil {
				log.Warn("rebuild failed", zap.Error(err))
				continue
			}
			select {
			case <-out:
			default:
			}
			out <- char
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}
