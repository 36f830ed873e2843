package screening

import (
	"fmt"
	"math"
	"strings"

	"fursaver-site/internal/condition"
	"fursaver-site/internal/detection"
)

const (
	NoConditionsAdvisory = "No specific skin conditions detected. If you have concerns about your pet's skin, consider consulting with a veterinarian for a professional examination."

	Disclaimer = "This AI analysis is for informational purposes only and should not replace professional veterinary diagnosis. Please consult with a licensed veterinarian for proper treatment and care recommendations."
)

// ConditionCard is one detection as shown to the owner
type ConditionCard struct {
	Label         string                `json:"label"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Severity      condition.Severity    `json:"severity"`
	SeverityLabel string                `json:"severity_label"`
	Confidence    string                `json:"confidence"`
	Score         float64               `json:"score"`
	BoundingBox   detection.BoundingBox `json:"bounding_box"`
}

// Report is the rendered form of an analysis result
type Report struct {
	Conditions  []ConditionCard `json:"conditions"`
	Advisory    string          `json:"advisory,omitempty"`
	Disclaimer  string          `json:"disclaimer"`
	ImageWidth  int             `json:"image_width"`
	ImageHeight int             `json:"image_height"`
}

// BuildReport renders result through the condition table, one card per
// detection in the order the detector returned them.
func BuildReport(result *detection.AnalysisResult) *Report {
	if result == nil {
		return nil
	}

	report := &Report{
		Conditions:  make([]ConditionCard, 0, len(result.Detections)),
		Disclaimer:  Disclaimer,
		ImageWidth:  result.ImageWidth,
		ImageHeight: result.ImageHeight,
	}
	for _, d := range result.Detections {
		info := condition.Lookup(d.Label)
		report.Conditions = append(report.Conditions, ConditionCard{
			Label:         d.Label,
			Name:          info.Name,
			Description:   info.Description,
			Severity:      info.Severity,
			SeverityLabel: info.Severity.Label(),
			Confidence:    FormatConfidence(d.Confidence),
			Score:         d.Confidence,
			BoundingBox:   d.BoundingBox,
		})
	}
	if len(report.Conditions) == 0 {
		report.Advisory = NoConditionsAdvisory
	}
	return report
}

// FormatConfidence renders a [0,1] score as a whole percentage, e.g. "87%".
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

// ChatPrompt is the message sent to the assistant when the owner asks about
// their results.
func ChatPrompt(result *detection.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("I just received my AI analysis results. ")

	if result == nil || len(result.Detections) == 0 {
		b.WriteString("No specific conditions were detected, but I'd like to learn more about pet skin health and what to watch for.")
		return b.String()
	}

	found := make([]string, 0, len(result.Detections))
	for _, d := range result.Detections {
		found = append(found, fmt.Sprintf("%s (%s confidence)", condition.Lookup(d.Label).Name, FormatConfidence(d.Confidence)))
	}
	b.WriteString("The analysis detected: ")
	b.WriteString(strings.Join(found, ", "))
	b.WriteString(". Can you tell me more about these conditions, their causes, symptoms, and what I should do next?")
	return b.String()
}
