// Package config handles build and viewer configuration loading.
package config

import "github.com/Faultbox/scmlkit/pkg/math"

// Config holds all tool settings.
type Config struct {
	Build   BuildConfig   `yaml:"build"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// BuildConfig holds character compilation settings.
type BuildConfig struct {
	OutputDir  string   `yaml:"output_dir"`  // Where compiled characters are written
	ImageRoots []string `yaml:"image_roots"` // Directories searched for source images

	AtlasMaxWidth  int `yaml:"atlas_max_width"`
	AtlasMaxHeight int `yaml:"atlas_max_height"`
	AtlasPadding   int `yaml:"atlas_padding"`

	// Hotspots overrides the pivot of an image, keyed by the name used in
	// the document.
	Hotspots map[string]math.Vec2 `yaml:"hotspots,omitempty"`
}

// ViewerConfig holds preview window settings.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	Background string  `yaml:"background"` // #RRGGBB
	Scale      float32 `yaml:"scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			OutputDir:      "build",
			ImageRoots:     []string{"."},
			AtlasMaxWidth:  2048,
			AtlasMaxHeight: 2048,
			AtlasPadding:   1,
		},
		Viewer: ViewerConfig{
			Width:      1024,
			Height:     768,
			Fullscreen: false,
			VSync:      true,
			Background: "#303040",
			Scale:      1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
