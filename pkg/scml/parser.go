package scml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/scmlkit/pkg/encoding"
	"github.com/Faultbox/scmlkit/pkg/math"
)

// SCML parse errors.
var (
	ErrMalformedDocument  = errors.New("malformed SCML document")
	ErrUnexpectedElement  = errors.New("unexpected element")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrDuplicateFrame     = errors.New("duplicate frame definition")
	ErrNoCharacter        = errors.New("no character definition")
	ErrMultipleCharacters = errors.New("more than one character definition")
	ErrMismatchedFrameRef = errors.New("frame reference without matching name and duration")
	ErrMissingImage       = errors.New("sprite without image")
)

// durationScale converts document durations (hundredths) into milliseconds.
const durationScale = 10

// opacityScale maps document opacity (0-100) onto an 8-bit alpha.
const opacityScale = 2.55

// parseState tracks which construct the parser is filling.
type parseState int

const (
	stateTop       parseState = iota // between constructs
	stateAnim                        // inside an animation
	stateAnimFrame                   // frame reference inside an animation
	stateFrameDef                    // frame definition
	stateSprite                      // sprite inside a frame definition
)

func (s parseState) String() string {
	switch s {
	case stateTop:
		return "top"
	case stateAnim:
		return "anim"
	case stateAnimFrame:
		return "anim/frame"
	case stateFrameDef:
		return "frame"
	case stateSprite:
		return "frame/sprite"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// parser holds the state machine and the builders in progress.
// Exactly one of anim or frame is non-nil outside stateTop; sprite is
// non-nil only in stateSprite.
type parser struct {
	char     *Character
	state    parseState
	seenChar bool
	named    bool

	leaf string       // last opened element, cleared on close
	text bytes.Buffer // character data of the current element

	anim   *Animation
	frame  *Frame
	sprite *SpriteDesc
}

// Parse parses an SCML document from raw bytes.
func Parse(data []byte) (*Character, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseFile parses an SCML document from disk.
func ParseFile(path string) (*Character, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening SCML file: %w", err)
	}
	defer f.Close()
	return ParseReader(f)
}

// ParseReader parses an SCML document in a single streaming pass.
// The document is assumed to be authored by the tool; any deviation from
// the expected nesting is a hard failure rather than something to recover from.
func ParseReader(r io.Reader) (*Character, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = encoding.CharsetReader

	p := &parser{char: NewCharacter()}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.open(t.Name.Local); err != nil {
				return nil, positioned(dec, t.Name.Local, err)
			}
		case xml.CharData:
			p.text.Write(t)
		case xml.EndElement:
			if err := p.close(t.Name.Local); err != nil {
				return nil, positioned(dec, t.Name.Local, err)
			}
		}
	}

	if !p.seenChar {
		return nil, ErrNoCharacter
	}
	return p.char, nil
}

func positioned(dec *xml.Decoder, element string, err error) error {
	line, _ := dec.InputPos()
	return fmt.Errorf("line %d: <%s>: %w", line, element, err)
}

func (p *parser) open(name string) error {
	p.text.Reset()
	p.leaf = name

	// Everything before the character is skipped.
	if !p.seenChar {
		if name == "char" {
			p.seenChar = true
		}
		return nil
	}

	switch name {
	case "char":
		return ErrMultipleCharacters

	case "anim", "animation":
		if p.state != stateTop {
			return fmt.Errorf("%w in %s", ErrUnexpectedElement, p.state)
		}
		p.state = stateAnim
		p.anim = &Animation{}

	case "frame":
		switch p.state {
		case stateAnim:
			// A reference to a frame definition by name.
			p.state = stateAnimFrame
		case stateTop:
			p.state = stateFrameDef
			p.frame = &Frame{}
		default:
			return fmt.Errorf("%w in %s", ErrUnexpectedElement, p.state)
		}

	case "sprite":
		if p.state != stateFrameDef {
			return fmt.Errorf("%w in %s", ErrUnexpectedElement, p.state)
		}
		p.state = stateSprite
		p.sprite = &SpriteDesc{Image: -1, Tint: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
	}

	return nil
}

func (p *parser) close(name string) error {
	text := strings.TrimSpace(p.text.String())
	isLeaf := name == p.leaf
	p.text.Reset()
	p.leaf = ""

	if !p.seenChar {
		return nil
	}

	if isLeaf {
		if err := p.assign(name, text); err != nil {
			return err
		}
	}

	switch {
	case (name == "anim" || name == "animation") && p.state == stateAnim:
		if len(p.anim.FrameNames) != len(p.anim.Durations) {
			return fmt.Errorf("%w: animation %q has %d names and %d durations",
				ErrMismatchedFrameRef, p.anim.Name, len(p.anim.FrameNames), len(p.anim.Durations))
		}
		p.char.Animations = append(p.char.Animations, *p.anim)
		p.anim = nil
		p.state = stateTop

	case name == "frame" && p.state == stateAnimFrame:
		p.state = stateAnim

	case name == "sprite" && p.state == stateSprite:
		if p.sprite.Image < 0 {
			return fmt.Errorf("%w in frame %q", ErrMissingImage, p.frame.Name)
		}
		p.frame.Sprites = append(p.frame.Sprites, *p.sprite)
		p.sprite = nil
		p.state = stateFrameDef

	case name == "frame" && p.state == stateFrameDef:
		p.char.Frames = append(p.char.Frames, *p.frame)
		p.frame = nil
		p.state = stateTop
	}

	return nil
}

// assign stores leaf text into the builder selected by the current state.
func (p *parser) assign(name, text string) error {
	switch p.state {
	case stateTop:
		if name == "name" && !p.named {
			p.char.Name = text
			p.named = true
		}

	case stateAnim:
		if name == "name" {
			p.anim.Name = text
		}

	case stateAnimFrame:
		switch name {
		case "name":
			p.anim.FrameNames = append(p.anim.FrameNames, text)
		case "duration":
			f, err := parseFloat(text)
			if err != nil {
				return err
			}
			p.anim.Durations = append(p.anim.Durations, f*durationScale)
		}

	case stateFrameDef:
		if name == "name" {
			if _, dup := p.char.FrameIndex[text]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateFrame, text)
			}
			p.frame.Name = text
			// Index this definition will occupy once it closes.
			p.char.FrameIndex[text] = len(p.char.Frames)
		}

	case stateSprite:
		return p.assignSprite(name, text)
	}

	return nil
}

func (p *parser) assignSprite(name, text string) error {
	s := p.sprite

	switch name {
	case "image":
		s.Image = p.char.InternImage(text)

	case "color":
		v, err := parseInt(text)
		if err != nil {
			return err
		}
		// Red lives in the low byte.
		s.Tint.R = uint8(v & 0xff)
		s.Tint.G = uint8((v >> 8) & 0xff)
		s.Tint.B = uint8((v >> 16) & 0xff)

	case "opacity":
		f, err := parseFloat(text)
		if err != nil {
			return err
		}
		s.Tint.A = OpacityToAlpha(f)

	case "angle":
		f, err := parseFloat(text)
		if err != nil {
			return err
		}
		s.Angle = ConvertAngle(f)

	case "xflip", "yflip":
		v, err := parseInt(text)
		if err != nil {
			return err
		}
		if name == "xflip" {
			s.FlipX = v > 0
		} else {
			s.FlipY = v > 0
		}

	case "width", "height", "x", "y":
		f, err := parseFloat(text)
		if err != nil {
			return err
		}
		switch name {
		case "width":
			s.Size.X = f
		case "height":
			s.Size.Y = f
		case "x":
			s.Offset.X = f
		case "y":
			s.Offset.Y = f
		}
	}

	return nil
}

// OpacityToAlpha maps a 0-100 opacity onto a clamped 8-bit alpha.
func OpacityToAlpha(opacity float32) uint8 {
	a := gomath.Round(float64(opacity) * opacityScale)
	if a < 0 {
		a = 0
	} else if a > 255 {
		a = 255
	}
	return uint8(a)
}

// ConvertAngle converts a document angle in degrees into runtime radians.
// The document rotates the other way, so the wrapped value is negated.
func ConvertAngle(deg float32) float32 {
	return float32(-math.WrapAngle(math.ToRadians(float64(deg))))
}

func parseFloat(text string) (float32, error) {
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return float32(f), nil
}

func parseInt(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return v, nil
}
