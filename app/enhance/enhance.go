// Package enhance adjusts image brightness and contrast and keeps uploaded images
// for repeated previews in a short-lived workspace.
package enhance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
)

// factor limits and default
const (
	MinFactor     = 0.5
	MaxFactor     = 2.0
	DefaultFactor = 1.0
)

// DefaultMaxPixels limits decoded image size, in pixels
const DefaultMaxPixels = 25_000_000

// ErrFactorRange returned for brightness or contrast factor outside of [MinFactor, MaxFactor]
var ErrFactorRange = fmt.Errorf("factor must be between %.1f and %.1f", MinFactor, MaxFactor)

// ErrUnsupportedType returned for images other than png and jpeg
var ErrUnsupportedType = errors.New("unsupported image type")

// ErrTooLarge returned for images with more pixels than allowed
var ErrTooLarge = errors.New("image dimensions too large")

// ImageExtensions lists accepted image file extensions
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// Params defines enhancement factors. 1.0 keeps the image as is.
type Params struct {
	Brightness float64
	Contrast   float64
}

// Validate checks both factors are in range
func (p Params) Validate() error {
	if p.Brightness < MinFactor || p.Brightness > MaxFactor || math.IsNaN(p.Brightness) {
		return fmt.Errorf("brightness %v: %w", p.Brightness, ErrFactorRange)
	}
	if p.Contrast < MinFactor || p.Contrast > MaxFactor || math.IsNaN(p.Contrast) {
		return fmt.Errorf("contrast %v: %w", p.Contrast, ErrFactorRange)
	}
	return nil
}

// Apply adjusts brightness first and then contrast of the brightened image. Alpha is kept.
// Both steps blend every color channel between a degenerate value and the source by the factor,
// truncating the result: brightness blends from black, contrast from the mean gray level.
func Apply(img image.Image, p Params) *image.NRGBA {
	res := imaging.Clone(img)
	if p.Brightness != DefaultFactor {
		f := float32(p.Brightness)
		res = imaging.AdjustFunc(res, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: blend(0, c.R, f), G: blend(0, c.G, f), B: blend(0, c.B, f), A: c.A}
		})
	}
	if p.Contrast != DefaultFactor {
		mean, f := meanGray(res), float32(p.Contrast)
		res = imaging.AdjustFunc(res, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: blend(mean, c.R, f), G: blend(mean, c.G, f), B: blend(mean, c.B, f), A: c.A}
		})
	}
	return res
}

// Decode reads an image, name is used to check the type by extension. Dimensions are checked
// from the image header before decoding, images over maxPixels are rejected with ErrTooLarge.
// maxPixels <= 0 means DefaultMaxPixels.
func Decode(name string, r io.Reader, maxPixels int) (image.Image, error) {
	if !slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name))) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	header := bytes.Buffer{}
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %s is %dx%d, max %d pixels", ErrTooLarge, name, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(io.MultiReader(&header, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return img, nil
}

// EncodePNG writes img as png
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// SavePNG writes img as png file, parent directories are created as needed
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to make directory for %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// meanGray returns rounded mean of the luma (ITU-R 601-2, 16-bit fixed point) over all pixels
func meanGray(img *image.NRGBA) uint8 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			sum += (uint64(row[i])*19595 + uint64(row[i+1])*38470 + uint64(row[i+2])*7471 + 0x8000) >> 16
		}
	}
	return uint8(float64(sum)/float64(b.Dx()*b.Dy()) + 0.5)
}

// blend moves from towards to by alpha, the result is clamped to [0, 255] and truncated
func blend(from, to uint8, alpha float32) uint8 {
	v := float32(from) + alpha*(float32(to)-float32(from))
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
