// Package loader is the entry point for reading skeleton and atlas assets
// from disk or any fs.FS.
//
// Skeleton files are read as binary (.skel, .bytes) or JSON (.json) by
// extension; files with any other extension are sniffed. Failures to read a
// file are reported as *model.IOError, parse failures keep the typed errors
// of the format readers (*model.ParseError, *model.VersionMismatchError,
// *model.MissingReferenceError) wrapped with the file path.
package loader

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/internal/skelio"
	"github.com/decker502/spine2d/pkg/model"
)

// Verbose enables [Loader] diagnostics.
var Verbose = false

// Format selects the skeleton encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatBinary
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// FormatFromPath returns the format implied by the file extension.
//
// Example:
//
//	FormatFromPath("hero.skel")  // FormatBinary
//	FormatFromPath("hero.json")  // FormatJSON
//	FormatFromPath("hero.txt")   // FormatUnknown
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".skel", ".bytes":
		return FormatBinary
	case ".json":
		return FormatJSON
	}
	return FormatUnknown
}

// sniff guesses the format from the content: JSON documents start with '{'
// after optional whitespace.
func sniff(data []byte) Format {
	if t := bytes.TrimLeft(data, " \t\r\n\ufeff"); len(t) > 0 && t[0] == '{' {
		return FormatJSON
	}
	return FormatBinary
}

// Options controls skeleton loading.
type Options struct {
	// Scale multiplies every positional value. Zero means 1.
	Scale float32
}

// LoadSkeleton decodes data in the given format. FormatUnknown sniffs the
// content.
func LoadSkeleton(data []byte, format Format, opts Options) (*model.SkeletonData, error) {
	if format == FormatUnknown {
		format = sniff(data)
	}
	so := skelio.Options{Scale: opts.Scale}
	if format == FormatJSON {
		return skelio.ReadJSON(data, so)
	}
	return skelio.ReadBinary(data, so)
}

// LoadSkeletonFile reads a skeleton file from the local filesystem.
//
// Parameters:
//   - path: a .skel, .bytes or .json file. Other extensions are sniffed.
//   - opts: loading options.
//
// Returns:
//   - The loaded skeleton data, or nil and an error. A missing or unreadable
//     file yields a *model.IOError.
func LoadSkeletonFile(path string, opts Options) (*model.SkeletonData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	return loadSkeleton(path, data, opts)
}

// LoadSkeletonFS reads a skeleton file from fsys.
func LoadSkeletonFS(fsys fs.FS, path string, opts Options) (*model.SkeletonData, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	return loadSkeleton(path, data, opts)
}

func loadSkeleton(path string, data []byte, opts Options) (*model.SkeletonData, error) {
	format := FormatFromPath(path)
	sd, err := LoadSkeleton(data, format, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load skeleton '%s': %w", path, err)
	}
	if sd.Name == "" {
		sd.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if Verbose {
		log.Printf("[Loader] Loaded skeleton '%s' (%s, version %s, %d animations)", path, format, sd.Version, len(sd.Animations))
	}
	return sd, nil
}

// LoadAtlas reads an atlas file from the local filesystem.
func LoadAtlas(path string) (*atlas.Atlas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	return parseAtlas(path, data)
}

// LoadAtlasFS reads an atlas file from fsys.
func LoadAtlasFS(fsys fs.FS, path string) (*atlas.Atlas, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	return parseAtlas(path, data)
}

func parseAtlas(path string, data []byte) (*atlas.Atlas, error) {
	a, err := atlas.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse atlas '%s': %w", path, err)
	}
	if Verbose {
		log.Printf("[Loader] Loaded atlas '%s' (%d pages, %d regions)", path, len(a.Pages), len(a.Regions))
	}
	return a, nil
}
