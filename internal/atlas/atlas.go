// Package atlas parses the text atlas files that accompany skeleton exports.
//
// An atlas lists one or more texture pages. Each page starts with the image
// file name followed by "key: value" page lines, then the regions packed into
// that page. A region starts with an unindented line holding its name and is
// followed by its own "key: value" lines. Both the current layout
// (bounds/offsets) and the legacy one (xy/size/orig/offset) are accepted.
package atlas

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Verbose enables parse diagnostics on the standard logger.
var Verbose = false

// Page is one texture image of an atlas.
type Page struct {
	Name      string
	Width     int
	Height    int
	Format    string
	MinFilter string
	MagFilter string
	RepeatX   bool
	RepeatY   bool
	PMA       bool
}

// Region is a named rectangle on a page. X, Y, Width and Height are the
// packed bounds; when Rotate is set the image is stored rotated 90 degrees
// counter clockwise, so Width and Height describe the unrotated image. OffsetX,
// OffsetY, OriginalWidth and OriginalHeight describe the whitespace stripped
// from the original image.
type Region struct {
	Name           string
	Page           *Page
	X, Y           int
	Width, Height  int
	OffsetX        int
	OffsetY        int
	OriginalWidth  int
	OriginalHeight int
	Rotate         bool
	Degrees        int
	Index          int
}

// Bounds returns the packed rectangle on the page image. Rotated regions
// occupy a Height × Width rectangle.
func (r *Region) Bounds() image.Rectangle {
	w, h := r.Width, r.Height
	if r.Degrees == 90 || r.Degrees == 270 {
		w, h = h, w
	}
	return image.Rect(r.X, r.Y, r.X+w, r.Y+h)
}

// Empty reports whether the region has no packed area. Renderers skip empty
// regions.
func (r *Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Atlas holds every page and region of one atlas file.
type Atlas struct {
	Pages   []*Page
	Regions []*Region
	byName  map[string]*Region
}

// FindRegion returns the first region named name, or nil.
func (a *Atlas) FindRegion(name string) *Region {
	return a.byName[name]
}

// FindRegionIndex returns the region named name with the given sequence
// index, or nil.
func (a *Atlas) FindRegionIndex(name string, index int) *Region {
	for _, r := range a.Regions {
		if r.Name == name && r.Index == index {
			return r
		}
	}
	return nil
}

// ParseFile reads and parses the atlas at path.
func ParseFile(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open atlas '%s': %w", path, err)
	}
	defer f.Close()

	a, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse atlas '%s': %w", path, err)
	}
	return a, nil
}

// Parse reads an atlas from r.
func Parse(r io.Reader) (*Atlas, error) {
	a := &Atlas{byName: make(map[string]*Region)}
	var page *Page
	var region *Region

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// A blank line ends the current page.
			page, region = nil, nil
			continue
		}

		key, value, isEntry := strings.Cut(trimmed, ":")
		if !isEntry {
			if page == nil {
				page = &Page{Name: trimmed, MinFilter: "Nearest", MagFilter: "Nearest"}
				a.Pages = append(a.Pages, page)
				region = nil
				continue
			}
			region = &Region{Name: trimmed, Page: page, Index: -1}
			a.Regions = append(a.Regions, region)
			if _, exists := a.byName[trimmed]; !exists {
				a.byName[trimmed] = region
			}
			continue
		}

		key = strings.TrimSpace(key)
		values := splitValues(value)
		var err error
		if region == nil {
			if page == nil {
				return nil, fmt.Errorf("line %d: entry '%s' before any page", lineNo, key)
			}
			err = page.set(key, values)
		} else {
			err = region.set(key, values)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if Verbose {
		log.Printf("[Atlas] Parsed %d pages, %d regions", len(a.Pages), len(a.Regions))
	}
	return a, nil
}

func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func ints(key string, values []string, n int) ([]int, error) {
	if len(values) < n {
		return nil, fmt.Errorf("'%s' needs %d values, got %d", key, n, len(values))
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(values[i])
		if err != nil {
			return nil, fmt.Errorf("invalid '%s' value '%s': %w", key, values[i], err)
		}
		out[i] = v
	}
	return out, nil
}

func (p *Page) set(key string, values []string) error {
	switch key {
	case "size":
		v, err := ints(key, values, 2)
		if err != nil {
			return err
		}
		p.Width, p.Height = v[0], v[1]
	case "format":
		p.Format = values[0]
	case "filter":
		p.MinFilter = values[0]
		p.MagFilter = values[0]
		if len(values) > 1 {
			p.MagFilter = values[1]
		}
	case "repeat":
		p.RepeatX = strings.Contains(values[0], "x")
		p.RepeatY = strings.Contains(values[0], "y")
	case "pma":
		p.PMA = values[0] == "true"
	}
	return nil
}

func (r *Region) set(key string, values []string) error {
	var v []int
	var err error
	switch key {
	case "bounds":
		if v, err = ints(key, values, 4); err == nil {
			r.X, r.Y, r.Width, r.Height = v[0], v[1], v[2], v[3]
		}
	case "xy":
		if v, err = ints(key, values, 2); err == nil {
			r.X, r.Y = v[0], v[1]
		}
	case "size":
		if v, err = ints(key, values, 2); err == nil {
			r.Width, r.Height = v[0], v[1]
		}
	case "offsets":
		if v, err = ints(key, values, 4); err == nil {
			r.OffsetX, r.OffsetY, r.OriginalWidth, r.OriginalHeight = v[0], v[1], v[2], v[3]
		}
	case "offset":
		if v, err = ints(key, values, 2); err == nil {
			r.OffsetX, r.OffsetY = v[0], v[1]
		}
	case "orig":
		if v, err = ints(key, values, 2); err == nil {
			r.OriginalWidth, r.OriginalHeight = v[0], v[1]
		}
	case "rotate":
		switch values[0] {
		case "true":
			r.Degrees = 90
		case "false":
			r.Degrees = 0
		default:
			if r.Degrees, err = strconv.Atoi(values[0]); err != nil {
				return fmt.Errorf("invalid 'rotate' value '%s': %w", values[0], err)
			}
		}
		r.Rotate = r.Degrees == 90
	case "index":
		if v, err = ints(key, values, 1); err == nil {
			r.Index = v[0]
		}
	}
	if err != nil {
		return err
	}
	if r.OriginalWidth == 0 && r.OriginalHeight == 0 && (key == "bounds" || key == "size") {
		r.OriginalWidth, r.OriginalHeight = r.Width, r.Height
	}
	return nil
}
