// Package preview renders stored images at the sizes clients request.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Gravity values accepted by Render
const (
	GravityCenter      = "center"
	GravityTop         = "top"
	GravityBottom      = "bottom"
	GravityLeft        = "left"
	GravityRight       = "right"
	GravityTopLeft     = "top-left"
	GravityTopRight    = "top-right"
	GravityBottomLeft  = "bottom-left"
	GravityBottomRight = "bottom-right"
)

// DefaultQuality applies when no quality is requested
const DefaultQuality = 90

// MaxSourcePixels caps the declared size of images Render will decode
const MaxSourcePixels = 50_000_000

var (
	ErrInvalidGravity = errors.New("invalid gravity")
	ErrInvalidSize    = errors.New("invalid preview size")
)

// Options selects the output box. A zero Width or Height leaves that side
// unconstrained; with both set the image is cropped to the box at Gravity.
type Options struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

func (o Options) validate() error {
	if o.Width < 0 || o.Height < 0 || o.Width > 4000 || o.Height > 4000 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.Width, o.Height)
	}
	switch o.Gravity {
	case "", GravityCenter, GravityTop, GravityBottom, GravityLeft, GravityRight,
		GravityTopLeft, GravityTopRight, GravityBottomLeft, GravityBottomRight:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidGravity, o.Gravity)
}

// Render decodes an image from r, fits it to opts and encodes it to w.
// PNG and GIF sources are written as PNG, everything else as JPEG.
// It returns the content type written.
func Render(w io.Writer, r io.Reader, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	// the header is read first so an oversized image is refused before its
	// pixels are allocated
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return "", fmt.Errorf("%w: source is %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	dst := fit(src, opts)

	switch format {
	case "png", "gif":
		if err := png.Encode(w, dst); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		return "image/png", nil
	default:
		q := opts.Quality
		if q <= 0 || q > 100 {
			q = DefaultQuality
		}
		if err := jpeg.Encode(w, dst, &jpeg.Options{Quality: q}); err != nil {
			return "", fmt.Errorf("encode jpeg: %w", err)
		}
		return "image/jpeg", nil
	}
}

// fit scales src down to cover the box and crops the overflow. Images are
// never scaled up.
func fit(src image.Image, opts Options) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return src
	}

	scale := 1.0
	switch {
	case opts.Width > 0 && opts.Height > 0:
		scale = max(float64(opts.Width)/float64(sw), float64(opts.Height)/float64(sh))
	case opts.Width > 0:
		scale = float64(opts.Width) / float64(sw)
	case opts.Height > 0:
		scale = float64(opts.Height) / float64(sh)
	}
	scale = min(scale, 1)

	scaledW := max(1, int(float64(sw)*scale))
	scaledH := max(1, int(float64(sh)*scale))
	outW, outH := scaledW, scaledH
	if opts.Width > 0 {
		outW = min(outW, opts.Width)
	}
	if opts.Height > 0 {
		outH = min(outH, opts.Height)
	}

	if scale == 1 && outW == sw && outH == sh {
		return src
	}

	// crop window in scaled space, mapped back onto the source
	ox, oy := offset(opts.Gravity, scaledW-outW, scaledH-outH)
	srcRect := image.Rect(
		b.Min.X+int(float64(ox)/scale),
		b.Min.Y+int(float64(oy)/scale),
		b.Min.X+int(float64(ox+outW)/scale),
		b.Min.Y+int(float64(oy+outH)/scale),
	).Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Over, nil)
	return dst
}

func offset(gravity string, spareX, spareY int) (int, int) {
	x, y := spareX/2, spareY/2
	switch gravity {
	case GravityTop:
		y = 0
	case GravityBottom:
		y = spareY
	case GravityLeft:
		x = 0
	case GravityRight:
		x = spareX
	case GravityTopLeft:
		x, y = 0, 0
	case GravityTopRight:
		x, y = spareX, 0
	case GravityBottomLeft:
		x, y = 0, spareY
	case GravityBottomRight:
		x, y = spareX, spareY
	}
	return x, y
}
