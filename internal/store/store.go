// Package store persists compiled characters as a YAML descriptor next to a
// PNG atlas, and reads them back for playback.
package store

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/math"
)

// Version is the descriptor format written by Save.
const Version = 1

// ErrUnsupportedVersion is returned for descriptors written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported descriptor version")

// Descriptor is the on-disk form of a compiled character.
type Descriptor struct {
	Version    int         `yaml:"version"`
	Name       string      `yaml:"name"`
	Atlas      string      `yaml:"atlas"` // relative to the descriptor
	Images     []ImageRef  `yaml:"images"`
	Animations []Animation `yaml:"animations"`
	Frames     []Frame     `yaml:"frames"`
}

// ImageRef locates one source image on the atlas.
type ImageRef struct {
	Rect    [4]int     `yaml:"rect,flow"` // x, y, width, height
	Hotspot [2]float32 `yaml:"hotspot,flow"`
}

// Animation is the on-disk form of character.Animation.
type Animation struct {
	Name      string    `yaml:"name"`
	Frames    []int     `yaml:"frames,flow"`
	Durations []float32 `yaml:"durations_ms,flow"`
}

// Frame is the on-disk form of character.Frame.
type Frame struct {
	Sprites []Sprite `yaml:"sprites"`
}

// Sprite is the on-disk form of character.Sprite.
type Sprite struct {
	Image  int        `yaml:"image"`
	Tint   string     `yaml:"tint"` // #RRGGBBAA
	Angle  float32    `yaml:"angle,omitempty"`
	FlipX  bool       `yaml:"flip_x,omitempty"`
	FlipY  bool       `yaml:"flip_y,omitempty"`
	Scale  [2]float32 `yaml:"scale,flow"`
	Offset [2]float32 `yaml:"offset,flow"`
}

// FileName returns the descriptor file name used for a character.
func FileName(name string) string {
	return sanitize(name) + ".yaml"
}

// Save writes char into dir and returns the descriptor path.
func Save(dir string, char *character.Character) (string, error) {
	if err := char.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	base := sanitize(char.Name)
	atlasName := base + ".png"
	if err := writePNG(filepath.Join(dir, atlasName), char.Atlas); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(Encode(char, atlasName))
	if err != nil {
		return "", fmt.Errorf("encoding descriptor: %w", err)
	}

	path := filepath.Join(dir, base+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing descriptor: %w", err)
	}
	return path, nil
}

// Load reads a descriptor and its atlas back into a validated character.
func Load(path string) (*character.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	if d.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}

	atlas, err := readPNG(filepath.Join(filepath.Dir(path), filepath.FromSlash(d.Atlas)))
	if err != nil {
		return nil, err
	}

	char, err := d.Decode(atlas)
	if err != nil {
		return nil, fmt.Errorf("decoding descriptor %s: %w", path, err)
	}
	if err := char.Validate(); err != nil {
		return nil, err
	}
	return char, nil
}

// Encode converts a character into its descriptor.
func Encode(char *character.Character, atlasName string) *Descriptor {
	d := &Descriptor{
		Version: Version,
		Name:    char.Name,
		Atlas:   atlasName,
	}

	for i, r := range char.Rects {
		h := char.Hotspots[i]
		d.Images = append(d.Images, ImageRef{
			Rect:    [4]int{r.Min.X, r.Min.Y, r.Dx(), r.Dy()},
			Hotspot: [2]float32{h.X, h.Y},
		})
	}

	for _, a := range char.Animations {
		d.Animations = append(d.Animations, Animation{
			Name:      a.Name,
			Frames:    a.FrameIndex,
			Durations: a.DurationMs,
		})
	}

	for _, f := range char.Frames {
		frame := Frame{}
		for _, s := range f.Sprites {
			frame.Sprites = append(frame.Sprites, Sprite{
				Image:  s.Image,
				Tint:   formatTint(s.Tint),
				Angle:  s.Angle,
				FlipX:  s.FlipX,
				FlipY:  s.FlipY,
				Scale:  [2]float32{s.Scale.X, s.Scale.Y},
				Offset: [2]float32{s.Offset.X, s.Offset.Y},
			})
		}
		d.Frames = append(d.Frames, frame)
	}

	return d
}

// Decode converts a descriptor back into a character using atlas as its sheet.
func (d *Descriptor) Decode(atlas *image.NRGBA) (*character.Character, error) {
	char := &character.Character{
		Name:  d.Name,
		Atlas: atlas,
	}

	for _, img := range d.Images {
		r := img.Rect
		char.Rects = append(char.Rects, image.Rect(r[0], r[1], r[0]+r[2], r[1]+r[3]))
		char.Hotspots = append(char.Hotspots, math.Vec2{X: img.Hotspot[0], Y: img.Hotspot[1]})
	}

	for _, a := range d.Animations {
		char.Animations = append(char.Animations, character.Animation{
			Name:       a.Name,
			FrameIndex: a.Frames,
			DurationMs: a.Durations,
		})
	}

	for i, f := range d.Frames {
		frame := character.Frame{}
		for j, s := range f.Sprites {
			tint, err := parseTint(s.Tint)
			if err != nil {
				return nil, fmt.Errorf("frame %d sprite %d: %w", i, j, err)
			}
			frame.Sprites = append(frame.Sprites, character.Sprite{
				Image:  s.Image,
				Tint:   tint,
				Angle:  s.Angle,
				FlipX:  s.FlipX,
				FlipY:  s.FlipY,
				Scale:  math.Vec2{X: s.Scale[0], Y: s.Scale[1]},
				Offset: math.Vec2{X: s.Offset[0], Y: s.Offset[1]},
			})
		}
		char.Frames = append(char.Frames, frame)
	}

	return char, nil
}

func formatTint(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func parseTint(s string) (color.NRGBA, error) {
	if len(s) != 9 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid tint %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid tint %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating atlas: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding atlas: %w", err)
	}
	return f.Close()
}

func readPNG(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening atlas: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding atlas %s: %w", path, err)
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}

	// Paletted or opaque atlases decode to other models.
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}

// sanitize turns a character name into a safe file base name.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "character"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
