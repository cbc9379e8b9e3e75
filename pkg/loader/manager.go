package loader

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"log"
	"os"
	"path"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/model"
)

// Manager loads skeletons, atlases and atlas page images from one fs.FS and
// caches them by path, so each asset is decoded once and shared by every
// instance that uses it.
//
// Thread Safety Note:
// Manager is NOT thread-safe. Load every asset from the main goroutine
// before starting concurrent updates; the returned SkeletonData is immutable
// and may then be shared freely.
//
// Usage:
//
//	m := loader.NewDirManager("assets")
//	sd, err := m.Skeleton("hero/hero.skel")
//	if err != nil {
//	    log.Printf("Failed to load skeleton: %v", err)
//	}
type Manager struct {
	fsys    fs.FS
	opts    Options
	skels   map[string]*model.SkeletonData // path -> skeleton
	atlases map[string]*atlas.Atlas        // path -> atlas
	pages   map[string]image.Image         // page image path -> image
}

// NewManager creates a Manager reading from fsys with default options.
func NewManager(fsys fs.FS) *Manager {
	return &Manager{
		fsys:    fsys,
		skels:   make(map[string]*model.SkeletonData),
		atlases: make(map[string]*atlas.Atlas),
		pages:   make(map[string]image.Image),
	}
}

// NewDirManager creates a Manager rooted at a directory on disk.
func NewDirManager(dir string) *Manager {
	return NewManager(os.DirFS(dir))
}

// SetOptions changes the options used for skeletons loaded afterwards.
func (m *Manager) SetOptions(opts Options) {
	m.opts = opts
}

// Skeleton loads the skeleton at p, or returns the cached one.
//
// Parameters:
//   - p: a slash-separated path inside the manager's filesystem.
//
// Returns:
//   - The shared skeleton data, or nil and the load error. Failed loads are
//     not cached.
func (m *Manager) Skeleton(p string) (*model.SkeletonData, error) {
	if sd, ok := m.skels[p]; ok {
		return sd, nil
	}
	sd, err := LoadSkeletonFS(m.fsys, p, m.opts)
	if err != nil {
		return nil, err
	}
	m.skels[p] = sd
	return sd, nil
}

// Atlas loads the atlas at p, or returns the cached one.
func (m *Manager) Atlas(p string) (*atlas.Atlas, error) {
	if a, ok := m.atlases[p]; ok {
		return a, nil
	}
	a, err := LoadAtlasFS(m.fsys, p)
	if err != nil {
		return nil, err
	}
	m.atlases[p] = a
	return a, nil
}

// PageImage decodes the image of page. Page names are relative to the
// directory of the atlas file at atlasPath.
func (m *Manager) PageImage(atlasPath string, page *atlas.Page) (image.Image, error) {
	p := path.Join(path.Dir(atlasPath), page.Name)
	if img, ok := m.pages[p]; ok {
		return img, nil
	}
	f, err := m.fsys.Open(p)
	if err != nil {
		return nil, &model.IOError{Path: p, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image '%s': %w", p, err)
	}
	if b := img.Bounds(); page.Width > 0 && (b.Dx() != page.Width || b.Dy() != page.Height) {
		log.Printf("[Loader] Warning: page '%s' is %dx%d, atlas says %dx%d", p, b.Dx(), b.Dy(), page.Width, page.Height)
	}
	m.pages[p] = img
	return img, nil
}

// PageImages decodes every page of the atlas at atlasPath, in page order.
func (m *Manager) PageImages(atlasPath string) ([]image.Image, error) {
	a, err := m.Atlas(atlasPath)
	if err != nil {
		return nil, err
	}
	images := make([]image.Image, len(a.Pages))
	for i, page := range a.Pages {
		img, err := m.PageImage(atlasPath, page)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}
	return images, nil
}
