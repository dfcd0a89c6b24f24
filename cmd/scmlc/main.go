// scmlc compiles Spriter beta character documents (.scml) into packed
// characters ready for playback.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/scmlkit/internal/build"
	"github.com/Faultbox/scmlkit/internal/config"
	"github.com/Faultbox/scmlkit/internal/logger"
	"github.com/Faultbox/scmlkit/internal/store"
	"github.com/Faultbox/scmlkit/internal/watch"
	"github.com/Faultbox/scmlkit/pkg/character"
	"github.com/Faultbox/scmlkit/pkg/scml"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build", "b":
		cmdBuild(args)
	case "info", "i":
		cmdInfo(args)
	case "watch", "w":
		cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scmlc - Spriter beta character compiler

Usage:
  scmlc <command> [options]

Commands:
  build [options] <file.scml>...   Compile documents into the output directory
  info <file.scml|file.yaml>       Show document or compiled character contents
  watch [options] <dir>            Rebuild documents in dir when they or their images change

Options (build, watch):
  -config <path>    Config file
  -out <dir>        Output directory
  -images <dir>     Extra image search directory (repeatable)
  -debug            Enable debug logging

Examples:
  scmlc build -out build hero.scml
  scmlc info build/Hero.yaml
  scmlc watch -images ../shared art/characters`)
}

// setup parses the build flags and initializes config and logging.
func setup(name string, args []string) (*config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	flags.RegisterBuild(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	return cfg, fs
}

func cmdBuild(args []string) {
	cfg, fs := setup("build", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scmlc build [options] <file.scml>...")
		os.Exit(1)
	}

	b := build.New(cfg.Build, logger.Named("build"))

	failed := 0
	for _, doc := range fs.Args() {
		path, err := b.Build(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("%s -> %s\n", doc, path)
	}

	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scmlc info <file.scml|file.yaml>")
		os.Exit(1)
	}
	path := args[0]

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		char, err := store.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printCharacter(char)
	default:
		doc, err := scml.ParseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printDocument(doc)
	}
}

func printDocument(doc *scml.Character) {
	fmt.Printf("Character:  %s\n", doc.Name)
	fmt.Printf("Images:     %d\n", len(doc.ImageFiles))
	fmt.Printf("Frames:     %d\n", len(doc.Frames))
	fmt.Printf("Animations: %d\n", len(doc.Animations))
	fmt.Println()

	for _, a := range doc.Animations {
		var total float32
		for _, d := range a.Durations {
			total += d
		}
		fmt.Printf("  %-20s %3d steps  %7.1f ms\n", a.Name, len(a.FrameNames), total)
		for i, name := range a.FrameNames {
			marker := ""
			if _, ok := doc.FrameIndex[name]; !ok {
				marker = "  (missing)"
			}
			fmt.Printf("      %-24s %6.1f ms%s\n", name, a.Durations[i], marker)
		}
	}

	fmt.Println()
	fmt.Println("Images:")
	for i, name := range doc.ImageFiles {
		fmt.Printf("  [%d] %s\n", i, name)
	}
}

func printCharacter(char *character.Character) {
	b := char.Atlas.Bounds()
	fmt.Printf("Character:  %s\n", char.Name)
	fmt.Printf("Atlas:      %dx%d\n", b.Dx(), b.Dy())
	fmt.Printf("Images:     %d\n", len(char.Rects))
	fmt.Printf("Frames:     %d\n", len(char.Frames))
	fmt.Printf("Animations: %d\n", len(char.Animations))
	fmt.Println()

	for i := range char.Animations {
		a := &char.Animations[i]
		var total float32
		for _, d := range a.DurationMs {
			total += d
		}
		fmt.Printf("  %-20s %3d steps  %7.1f ms  frames %v\n", a.Name, a.Len(), total, a.FrameIndex)
	}

	// Largest images first
	order := make([]int, len(char.Rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := char.Rects[order[a]], char.Rects[order[b]]
		return ra.Dx()*ra.Dy() > rb.Dx()*rb.Dy()
	})

	fmt.Println()
	fmt.Println("Atlas rectangles:")
	for _, i := range order {
		r := char.Rects[i]
		h := char.Hotspots[i]
		fmt.Printf("  [%d] %4d,%-4d %4dx%-4d hotspot %.0f,%.0f\n", i, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), h.X, h.Y)
	}
}

func cmdWatch(args []string) {
	cfg, fs := setup("watch", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scmlc watch [options] <dir>")
		os.Exit(1)
	}
	dir, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	outDir, _ := filepath.Abs(cfg.Build.OutputDir)

	b := build.New(cfg.Build, logger.Named("build"))

	docs, err := filepath.Glob(filepath.Join(dir, "*.scml"))
	if err != nil || len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "No .scml documents in %s\n", dir)
		os.Exit(1)
	}

	buildAll := func() {
		for _, doc := range docs {
			if _, err := b.Build(doc); err != nil {
				logger.Error("build failed", zap.Error(err))
			}
		}
	}
	buildAll()

	dirs := append([]string{dir}, existingDirs(b.Roots(docs[0]))...)
	w, err := watch.New(dedupe(dirs)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for changes", zap.Strings("dirs", dirs))

	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if watch.IsDocument(name) {
				if !contains(docs, name) {
					docs = append(docs, name)
				}
				if _, err := b.Build(name); err != nil {
					logger.Error("build failed", zap.Error(err))
				}
				continue
			}
			// Atlases written by the build itself.
			if filepath.Dir(name) == outDir {
				continue
			}
			// An image may be shared by any document.
			logger.Debug("image changed", zap.String("path", name))
			b.Invalidate(name)
			buildAll()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

func existingDirs(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			out = append(out, d)
		}
	}
	return out
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if filepath.Clean(v) == filepath.Clean(s) {
			return true
		}
	}
	return false
}
