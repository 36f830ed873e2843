package screening

import (
	"testing"

	"fursaver-site/internal/condition"
	"fursaver-site/internal/detection"
)

func TestBuildReport_SingleHotspot(t *testing.T) {
	report := BuildReport(&detection.AnalysisResult{
		Detections: []detection.Detection{{
			Label:       "hotspot",
			Confidence:  0.87,
			BoundingBox: detection.BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
		}},
		ImageWidth:  640,
		ImageHeight: 480,
	})

	if len(report.Conditions) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(report.Conditions))
	}
	card := report.Conditions[0]
	if card.Name != "Hot Spot" {
		t.Errorf("Expected Hot Spot, got %s", card.Name)
	}
	if card.Severity != condition.SeverityHigh || card.SeverityLabel != "HIGH" {
		t.Errorf("Expected HIGH severity, got %s/%s", card.Severity, card.SeverityLabel)
	}
	if card.Confidence != "87%" {
		t.Errorf("Expected 87%%, got %s", card.Confidence)
	}
	if report.Advisory != "" {
		t.Errorf("Expected no advisory, got %q", report.Advisory)
	}
	if report.Disclaimer != Disclaimer {
		t.Error("Expected the disclaimer on every report")
	}
}

func TestBuildReport_NoDetections(t *testing.T) {
	report := BuildReport(&detection.AnalysisResult{Detections: []detection.Detection{}, ImageWidth: 640, ImageHeight: 480})

	if len(report.Conditions) != 0 {
		t.Errorf("Expected zero cards, got %d", len(report.Conditions))
	}
	if report.Advisory != NoConditionsAdvisory {
		t.Errorf("Expected the no-conditions advisory, got %q", report.Advisory)
	}
}

func TestBuildReport_UnknownLabelAndOrder(t *testing.T) {
	report := BuildReport(&detection.AnalysisResult{
		Detections: []detection.Detection{
			{Label: "Mange", Confidence: 0.5},
			{Label: "FUNGAL", Confidence: 0.254},
		},
	})

	if report.Conditions[0].Name != "Mange" || report.Conditions[0].Description != condition.FallbackDescription {
		t.Errorf("Expected fallback card for Mange, got %+v", report.Conditions[0])
	}
	if report.Conditions[0].SeverityLabel != "MEDIUM" {
		t.Errorf("Expected MEDIUM for unknown label, got %s", report.Conditions[0].SeverityLabel)
	}
	if report.Conditions[1].Name != "Fungal Infection" || report.Conditions[1].Confidence != "25%" {
		t.Errorf("Unexpected second card %+v", report.Conditions[1])
	}
}

func TestBuildReport_Nil(t *testing.T) {
	if BuildReport(nil) != nil {
		t.Error("Expected nil report for nil result")
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "0%"},
		{0.004, "0%"},
		{0.005, "1%"},
		{0.5, "50%"},
		{0.874, "87%"},
		{0.875, "88%"},
		{1, "100%"},
	}

	for _, tt := range tests {
		if got := FormatConfidence(tt.score); got != tt.want {
			t.Errorf("FormatConfidence(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestChatPrompt(t *testing.T) {
	tests := []struct {
		name   string
		result *detection.AnalysisResult
		want   string
	}{
		{
			name: "with detections",
			result: &detection.AnalysisResult{Detections: []detection.Detection{
				{Label: "hotspot", Confidence: 0.87},
				{Label: "allergic", Confidence: 0.42},
			}},
			want: "I just received my AI analysis results. The analysis detected: Hot Spot (87% confidence), Allergic Reaction (42% confidence). Can you tell me more about these conditions, their causes, symptoms, and what I should do next?",
		},
		{
			name:   "no detections",
			result: &detection.AnalysisResult{Detections: []detection.Detection{}},
			want:   "I just received my AI analysis results. No specific conditions were detected, but I'd like to learn more about pet skin health and what to watch for.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChatPrompt(tt.result); got != tt.want {
				t.Errorf("Unexpected prompt:\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}
