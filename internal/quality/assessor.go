// Package quality scores detected face regions so that matching can be
// tuned to, or skip, poor inputs.
package quality

import (
	"image"
	"math"

	"github.com/17hemanthkumar/pm/internal/config"
)

// Weights of the individual scores inside the combined confidence.
const (
	blurWeight       = 0.40
	brightnessWeight = 0.35
	sizeWeight       = 0.25
)

// referenceFaceArea is the area (200x200 px) that earns the full size score.
const referenceFaceArea = 40000.0

// blurVarianceScale maps Laplacian variance onto [0,1].
const blurVarianceScale = 500.0

// adaptiveConfidenceCutoff is the confidence at or above which the base
// tolerance is kept as-is instead of being tightened.
const adaptiveConfidenceCutoff = 0.8

const (
	defaultMinFaceSize   = 80
	defaultMinConfidence = 0.7
)

// Metrics describes the measured quality of one face region.
type Metrics struct {
	FaceWidth       int     `json:"face_width"`
	FaceHeight      int     `json:"face_height"`
	FaceArea        int     `json:"face_area"`
	BrightnessScore float64 `json:"brightness_score"`
	BlurScore       float64 `json:"blur_score"`
	Confidence      float64 `json:"confidence"`
	Acceptable      bool    `json:"is_acceptable"`
}

// Assessor computes quality metrics for face regions and derives
// per-face matching tolerances from them.
type Assessor struct {
	minFaceSize   int
	minConfidence float64
}

// NewAssessor creates an assessor with acceptance thresholds taken from
// cfg. A nil config uses the built-in defaults.
func NewAssessor(cfg *config.Config) *Assessor {
	a := &Assessor{
		minFaceSize:   defaultMinFaceSize,
		minConfidence: defaultMinConfidence,
	}
	if cfg != nil {
		a.minFaceSize = cfg.MinFaceSize
		a.minConfidence = cfg.MinConfidence
	}
	return a
}

// Assess measures the face region box within img. The region is clipped
// to the image bounds before scoring; a box that lies entirely outside
// the image scores zero brightness and sharpness. Size metrics always
// reflect the box as reported by the detector.
func (a *Assessor) Assess(img image.Image, box Box) Metrics {
	width := box.Width()
	height := box.Height()
	area := box.Area()

	luma := cropLuma(img, box)
	brightness := brightnessScore(luma)
	blur := blurScore(luma)

	sizeScore := math.Min(1.0, float64(area)/referenceFaceArea)
	confidence := clamp01(blurWeight*blur + brightnessWeight*brightness + sizeWeight*sizeScore)

	return Metrics{
		FaceWidth:       width,
		FaceHeight:      height,
		FaceArea:        area,
		BrightnessScore: brightness,
		BlurScore:       blur,
		Confidence:      confidence,
		Acceptable:      box.MinDim() >= a.minFaceSize && confidence >= a.minConfidence,
	}
}

// AdaptiveTolerance scales base by the face quality: a confidence of 1
// keeps the base tolerance, a confidence of 0 halves it. The result is
// always within [0,1].
func (a *Assessor) AdaptiveTolerance(base float64, m Metrics) float64 {
	return clamp01(base * (0.5 + 0.5*m.Confidence))
}

// ShouldUseAdaptiveThreshold reports whether the face is poor enough
// that the tightened tolerance should be applied.
func (a *Assessor) ShouldUseAdaptiveThreshold(m Metrics) bool {
	return m.Confidence < adaptiveConfidenceCutoff
}

// cropLuma extracts the box region as rows of BT.601 luma values,
// clipped to the image bounds. Returns nil when nothing overlaps.
func cropLuma(img image.Image, box Box) [][]float64 {
	r := box.Rect().Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}

	luma := make([][]float64, r.Dy())
	for y := 0; y < r.Dy(); y++ {
		luma[y] = make([]float64, r.Dx())
		for x := 0; x < r.Dx(); x++ {
			cr, cg, cb, _ := img.At(r.Min.X+x, r.Min.Y+y).RGBA()
			// ITU-R BT.601 luma formula.
			luma[y][x] = 0.299*float64(cr>>8) + 0.587*float64(cg>>8) + 0.114*float64(cb>>8)
		}
	}

	return luma
}

// brightnessScore peaks at 1.0 for a mean luma of 50% gray and falls
// off quadratically toward pure black or pure white.
func brightnessScore(luma [][]float64) float64 {
	total := 0.0
	count := 0
	for _, row := range luma {
		for _, v := range row {
			total += v
		}
		count += len(row)
	}
	if count == 0 {
		return 0
	}

	mean := total / float64(count) / 255.0
	d := mean - 0.5
	return clamp01(1.0 - 4.0*d*d)
}

// blurScore estimates sharpness as the variance of the 4-neighbor
// Laplacian, scaled so that a variance of blurVarianceScale or more
// counts as fully sharp. Edges are replicated.
func blurScore(luma [][]float64) float64 {
	if len(luma) == 0 || len(luma[0]) == 0 {
		return 0
	}

	h := len(luma)
	w := len(luma[0])
	sum := 0.0
	sumSq := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			up := luma[max(y-1, 0)][x]
			down := luma[min(y+1, h-1)][x]
			left := luma[y][max(x-1, 0)]
			right := luma[y][min(x+1, w-1)]
			v := up + down + left + right - 4.0*luma[y][x]
			sum += v
			sumSq += v * v
		}
	}

	n := float64(h * w)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Min(1.0, variance/blurVarianceScale)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
