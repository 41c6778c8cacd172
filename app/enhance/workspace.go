package enhance

import (
	"errors"
	"image"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
)

// ErrNotFound returned for unknown or expired workspace images
var ErrNotFound = errors.New("image not found or expired")

// Workspace keeps uploaded images by generated id, so previews with different factors
// don't need the image to be uploaded again. Entries expire after ttl, the least recently
// used entry is evicted above maxImages.
type Workspace struct {
	images cache.Cache[string, image.Image]
}

// NewWorkspace makes Workspace with ttl and images limit
func NewWorkspace(ttl time.Duration, maxImages int) *Workspace {
	c := cache.NewCache[string, image.Image]().WithTTL(ttl).WithMaxKeys(maxImages).WithLRU()
	return &Workspace{images: c}
}

// Put stores image and returns its id
func (w *Workspace) Put(img image.Image) string {
	id := uuid.NewString()
	w.images.Set(id, img, 0)
	log.Printf("[DEBUG] image %s added to workspace, %dx%d", id, img.Bounds().Dx(), img.Bounds().Dy())
	return id
}

// Get returns image by id
func (w *Workspace) Get(id string) (image.Image, error) {
	img, ok := w.images.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return img, nil
}

// Len returns number of stored images
func (w *Workspace) Len() int {
	return w.images.Len()
}
