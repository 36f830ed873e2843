package ingestion

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// Hint is an advisory remark about a photo. Hints never reject an upload.
type Hint struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Value   float64 `json:"value,omitempty"`
}

const (
	HintLowResolution = "low_resolution"
	HintTooDark       = "too_dark"
	HintTooBright     = "too_bright"
	HintLowContrast   = "low_contrast"
)

// QualityThresholds defines when a hint is raised
type QualityThresholds struct {
	MinWidth  int
	MinHeight int

	// Luminance is normalised to [0,1]
	MinLuminance float64
	MaxLuminance float64
	MinContrast  float64

	// SampleGrid is the number of points sampled along each axis
	SampleGrid int
}

func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinWidth:     320,
		MinHeight:    320,
		MinLuminance: 0.15,
		MaxLuminance: 0.92,
		MinContrast:  0.04,
		SampleGrid:   64,
	}
}

// QualityChecker looks for the photo problems that make skin conditions
// hard to see: too small, too dark, washed out, or flat.
type QualityChecker struct {
	thresholds QualityThresholds
}

func NewQualityChecker(thresholds QualityThresholds) *QualityChecker {
	if thresholds.SampleGrid <= 0 {
		thresholds.SampleGrid = DefaultQualityThresholds().SampleGrid
	}
	return &QualityChecker{thresholds: thresholds}
}

func (q *QualityChecker) Check(img image.Image) []Hint {
	var hints []Hint

	bounds := img.Bounds()
	if bounds.Dx() < q.thresholds.MinWidth || bounds.Dy() < q.thresholds.MinHeight {
		hints = append(hints, Hint{
			Code:    HintLowResolution,
			Message: "The photo is quite small. A closer, higher-resolution shot of the affected area gives better results.",
			Value:   float64(bounds.Dx() * bounds.Dy()),
		})
	}

	samples := q.sampleLuminance(img)
	if len(samples) == 0 {
		return hints
	}

	mean, std := stat.MeanStdDev(samples, nil)
	switch {
	case mean < q.thresholds.MinLuminance:
		hints = append(hints, Hint{
			Code:    HintTooDark,
			Message: "The photo looks dark. Try again in better light.",
			Value:   mean,
		})
	case mean > q.thresholds.MaxLuminance:
		hints = append(hints, Hint{
			Code:    HintTooBright,
			Message: "The photo looks overexposed. Avoid direct flash or sunlight on the skin.",
			Value:   mean,
		})
	}
	// a single sample has no spread to measure
	if len(samples) > 1 && std < q.thresholds.MinContrast {
		hints = append(hints, Hint{
			Code:    HintLowContrast,
			Message: "The photo has very little detail. Make sure the affected area is in focus.",
			Value:   std,
		})
	}
	return hints
}

// sampleLuminance reads Rec. 601 luma on an evenly spaced grid.
func (q *QualityChecker) sampleLuminance(img image.Image) []float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	stepsX := min(q.thresholds.SampleGrid, w)
	stepsY := min(q.thresholds.SampleGrid, h)
	samples := make([]float64, 0, stepsX*stepsY)

	for j := 0; j < stepsY; j++ {
		y := bounds.Min.Y + j*h/stepsY
		for i := 0; i < stepsX; i++ {
			x := bounds.Min.X + i*w/stepsX
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			samples = append(samples, lum)
		}
	}
	return samples
}
