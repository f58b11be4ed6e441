// Package preprocess prepares images for face detection. Incoming
// photos arrive in arbitrary sizes and lighting conditions; the
// preprocessor equalizes brightness and letterboxes every image to a
// fixed target size so downstream encodings stay comparable.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/17hemanthkumar/pm/internal/config"
)

const jpegQuality = 85

// Preprocessor applies the configured normalization and resize steps.
// All methods are pure: the same input image always yields the same
// output bytes.
type Preprocessor struct {
	normalizeBrightness bool
	targetWidth         int
	targetHeight        int
}

// NewPreprocessor builds a Preprocessor from configuration. A nil
// config falls back to the defaults.
func NewPreprocessor(cfg *config.Config) *Preprocessor {
	if cfg == nil {
		cfg = config.Load()
	}
	return &Preprocessor{
		normalizeBrightness: cfg.NormalizeBrightness,
		targetWidth:         cfg.TargetImageSize.Width,
		targetHeight:        cfg.TargetImageSize.Height,
	}
}

// Process runs the full pipeline: brightness normalization when
// enabled, then the letterbox resize to the target size.
func (p *Preprocessor) Process(img image.Image) *image.RGBA {
	if p.normalizeBrightness {
		img = p.NormalizeBrightness(img)
	}
	return p.ResizeToTarget(img)
}

// NormalizeBrightness equalizes the luma histogram of an image,
// stretching a compressed brightness range across the full scale.
// Dark images come out brighter; the output always has the same
// dimensions as the input. Single-valued images are returned as-is
// since there is no distribution to equalize.
func (p *Preprocessor) NormalizeBrightness(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	total := width * height
	if total == 0 {
		return out
	}

	var hist [256]int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			hist[luma8(r, g, b)]++
		}
	}

	var cdf [256]int
	sum := 0
	for v, n := range hist {
		sum += n
		cdf[v] = sum
	}
	cdfMin := 0
	for _, n := range hist {
		if n > 0 {
			cdfMin = n
			break
		}
	}
	if cdfMin == total {
		draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
		return out
	}

	var lut [256]uint8
	for v := range lut {
		if cdf[v] <= cdfMin {
			continue
		}
		lut[v] = uint8((cdf[v] - cdfMin) * 255 / (total - cdfMin))
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			orig := luma8(r, g, b)
			mapped := lut[orig]
			var nr, ng, nb uint8
			if orig == 0 {
				// Pure black pixels carry no chroma to rescale.
				nr, ng, nb = mapped, mapped, mapped
			} else {
				scale := float64(mapped) / float64(orig)
				nr = clampByte(float64(r8) * scale)
				ng = clampByte(float64(g8) * scale)
				nb = clampByte(float64(b8) * scale)
			}
			out.SetRGBA(x, y, color.RGBA{R: nr, G: ng, B: nb, A: uint8(a >> 8)})
		}
	}
	return out
}

// ResizeToTarget letterboxes the image to the configured target size.
func (p *Preprocessor) ResizeToTarget(img image.Image) *image.RGBA {
	return Letterbox(img, p.targetWidth, p.targetHeight)
}

// Letterbox scales an image to fit within width x height while keeping
// its aspect ratio, centered on a black canvas. The output dimensions
// always equal the requested size exactly.
func Letterbox(img image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)

	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth == 0 || srcHeight == 0 {
		return out
	}

	scale := min(float64(width)/float64(srcWidth), float64(height)/float64(srcHeight))
	contentWidth := max(int(float64(srcWidth)*scale), 1)
	contentHeight := max(int(float64(srcHeight)*scale), 1)
	offsetX := (width - contentWidth) / 2
	offsetY := (height - contentHeight) / 2

	target := image.Rect(offsetX, offsetY, offsetX+contentWidth, offsetY+contentHeight)
	draw.BiLinear.Scale(out, target, img, bounds, draw.Over, nil)
	return out
}

// Decode parses image bytes in any of the supported formats, applying
// EXIF orientation so phone photos come out upright.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG serializes an image as JPEG for transport.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// luma8 converts 16-bit RGBA channels to an 8-bit luma value.
func luma8(r, g, b uint32) int {
	// ITU-R BT.601 luma formula.
	y := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
	return min(int(y+0.5), 255)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
