// Package build runs the document to character pipeline shared by the
// command-line tools: parse, load images, pack, compile and optionally store.
package build

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scmlkit/internal/assets"
	"github.com/Faultbox/scmlkit/internal/config"
	"github.com/Faultbox/scmlkit/internal/store"
	"github.com/Faultbox/scmlkit/pkg/atlas"
	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/compiler"
	"github.com/Faultbox/scmlkit/pkg/scml"
)

// Builder compiles character documents with one build configuration.
// Decoded images are cached per set of search roots and reused across
// builds until invalidated.
type Builder struct {
	cfg    config.BuildConfig
	packer *atlas.ShelfPacker
	log    *zap.Logger

	mu       sync.Mutex
	managers map[string]*assets.Manager
}

// New creates a builder. A nil log discards output.
func New(cfg config.BuildConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		cfg: cfg,
		packer: &atlas.ShelfPacker{
			MaxWidth:  cfg.AtlasMaxWidth,
			MaxHeight: cfg.AtlasMaxHeight,
			Padding:   cfg.AtlasPadding,
		},
		log:      log,
		managers: make(map[string]*assets.Manager),
	}
}

// Roots returns the image search roots for a document: the configured roots
// first, then the document's own directory, which wins.
func (b *Builder) Roots(docPath string) []string {
	roots := make([]string, 0, len(b.cfg.ImageRoots)+1)
	roots = append(roots, b.cfg.ImageRoots...)
	return append(roots, filepath.Dir(docPath))
}

// manager returns the image manager for docPath's search roots.
func (b *Builder) manager(docPath string) *assets.Manager {
	roots := b.Roots(docPath)
	key := strings.Join(roots, "\x00")

	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.managers[key]
	if !ok {
		m = assets.NewManager(roots...)
		b.managers[key] = m
	}
	return m
}

// Invalidate drops cached images read from the file at path so the next
// build decodes it again. It returns the number of entries dropped.
func (b *Builder) Invalidate(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.managers {
		n += m.InvalidatePath(path)
	}
	if n > 0 {
		b.log.Debug("invalidated image", zap.String("path", path), zap.Int("entries", n))
	}
	return n
}

// Compile parses and compiles the document at docPath.
func (b *Builder) Compile(docPath string) (*character.Character, error) {
	start := time.Now()

	imp, err := scml.ParseFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", docPath, err)
	}

	images := b.manager(docPath)
	c := compiler.New(
		images,
		b.packer,
		compiler.WithLogger(b.log.Named("compiler")),
		compiler.WithHotspots(b.cfg.Hotspots),
	)

	char, err := c.Compile(imp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", docPath, err)
	}

	b.log.Info("built character",
		zap.String("document", docPath),
		zap.String("name", char.Name),
		zap.Int("animations", len(char.Animations)),
		zap.Int("images", len(char.Rects)),
		zap.Duration("took", time.Since(start)),
	)

	hits, misses := images.Cache().Stats()
	b.log.Debug("image cache",
		zap.Int("cached", images.Cache().Len()),
		zap.Int("hits", hits),
		zap.Int("misses", misses),
	)
	return char, nil
}

// Build compiles the document and writes the result to the output directory.
// It returns the descriptor path.
func (b *Builder) Build(docPath string) (string, error) {
	char, err := b.Compile(docPath)
	if err != nil {
		return "", err
	}

	path, err := store.Save(b.cfg.OutputDir, char)
	if err != nil {
		return "", fmt.Errorf("%s: %w", docPath, err)
	}

	b.log.Debug("wrote character", zap.String("path", path))
	return path, nil
}

// Load returns a character from either a document or a stored descriptor.
func (b *Builder) Load(path string) (*character.Character, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return store.Load(path)
	default:
		return b.Compile(path)
	}
}
