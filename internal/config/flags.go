package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides. Each binary registers the groups it
// understands on its own flag set.
type Flags struct {
	Config string
	Debug  bool

	OutputDir  string
	ImageRoots []string

	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
}

// RegisterFlags registers the flags shared by every command.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	return f
}

// RegisterBuild registers the character build flags.
func (f *Flags) RegisterBuild(fs *flag.FlagSet) {
	fs.StringVar(&f.OutputDir, "out", "", "Output directory for compiled characters")
	fs.Func("images", "Image search directory (repeatable, later wins)", func(s string) error {
		for _, dir := range strings.Split(s, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				f.ImageRoots = append(f.ImageRoots, dir)
			}
		}
		return nil
	})
}

// RegisterViewer registers the preview window flags.
func (f *Flags) RegisterViewer(fs *flag.FlagSet) {
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.OutputDir != "" {
		cfg.Build.OutputDir = f.OutputDir
	}
	// Flag roots are searched after the configured ones.
	cfg.Build.ImageRoots = append(cfg.Build.ImageRoots, f.ImageRoots...)
	if f.Windowed {
		cfg.Viewer.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Viewer.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Viewer.Height = f.Height
	}
}
