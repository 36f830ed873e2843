package detection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BoundingBox is the detector's box, centre-based as the endpoint reports it.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one labelled region found in the photo.
type Detection struct {
	Label       string      `json:"label"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// AnalysisResult is the outcome of one analysis request. It is replaced, never
// merged, when the photo is analysed again.
type AnalysisResult struct {
	Detections  []Detection `json:"detections"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
}

// wire format of the detection endpoint
type prediction struct {
	Class      string `json:"class"`
	Confidence number `json:"confidence"`
	X          number `json:"x"`
	Y          number `json:"y"`
	Width      number `json:"width"`
	Height     number `json:"height"`
}

type response struct {
	Predictions []prediction `json:"predictions"`
	Image       struct {
		Width  number `json:"width"`
		Height number `json:"height"`
	} `json:"image"`
}

// number accepts both JSON numbers and numeric strings; some model versions
// report image dimensions as strings.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

func (r *response) toResult() *AnalysisResult {
	result := &AnalysisResult{
		Detections:  make([]Detection, 0, len(r.Predictions)),
		ImageWidth:  int(r.Image.Width),
		ImageHeight: int(r.Image.Height),
	}
	for _, p := range r.Predictions {
		result.Detections = append(result.Detections, Detection{
			Label:      p.Class,
			Confidence: clampUnit(float64(p.Confidence)),
			BoundingBox: BoundingBox{
				X:      float64(p.X),
				Y:      float64(p.Y),
				Width:  float64(p.Width),
				Height: float64(p.Height),
			},
		})
	}
	return result
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
