package site

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"fursaver-site/internal/conversation"
	"fursaver-site/internal/detection"
	"fursaver-site/internal/ingestion"
	"fursaver-site/internal/screening"
)

func TestParseView(t *testing.T) {
	tests := []struct {
		input string
		want  View
	}{
		{"", ViewLanding},
		{"landing", ViewLanding},
		{"upload", ViewUpload},
		{"UPLOAD", ViewUpload},
		{"chat", ViewConversation},
		{"conversation", ViewConversation},
		{"admin", ViewLanding},
	}

	for _, tt := range tests {
		if got := ParseView(tt.input); got != tt.want {
			t.Errorf("ParseView(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestView_Path(t *testing.T) {
	for _, v := range []View{ViewLanding, ViewUpload, ViewConversation} {
		if ParseView(strings.TrimPrefix(v.Path(), "/?view=")) != v {
			t.Errorf("Path %s does not round-trip to %v", v.Path(), v)
		}
	}
}

func TestLoadContent(t *testing.T) {
	content, err := LoadContent()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if content.Brand.Name != "FurSaver" {
		t.Errorf("Expected FurSaver, got %s", content.Brand.Name)
	}
	if len(content.Features.Items) != 6 {
		t.Errorf("Expected 6 features, got %d", len(content.Features.Items))
	}
	if len(content.Steps.Items) != 3 || content.Steps.Items[0].Step != "01" {
		t.Errorf("Unexpected steps %+v", content.Steps.Items)
	}
	if content.Footer.Email != "support@fursaver.com" {
		t.Errorf("Unexpected footer email %s", content.Footer.Email)
	}
}

func TestParseContent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "brand: [unclosed"},
		{"missing brand", "hero:\n  title: hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseContent([]byte(tt.data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func render(t *testing.T, page Page) string {
	t.Helper()
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	content, err := LoadContent()
	if err != nil {
		t.Fatalf("Failed to load content: %v", err)
	}
	page.Content = content

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, PageTemplate, page); err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	return buf.String()
}

func TestRender_Landing(t *testing.T) {
	html := render(t, Page{View: ViewLanding})

	for _, want := range []string{"Protect Your Pet&#39;s", "Why Choose FurSaver?", "How It Works", "Trusted by Pet Owners Worldwide", "support@fursaver.com"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected landing page to contain %q", want)
		}
	}
	if strings.Contains(html, `action="/upload"`) {
		t.Error("Expected no upload form on the landing page")
	}
}

func TestRender_UploadWithReport(t *testing.T) {
	state := &screening.State{
		ID: "ws",
		Image: &ingestion.Image{
			ContentType: "image/png",
			Preview:     "data:image/png;base64,aGVsbG8=",
		},
		Report: screening.BuildReport(&detection.AnalysisResult{
			Detections: []detection.Detection{{Label: "hotspot", Confidence: 0.87}},
		}),
	}
	html := render(t, Page{View: ViewUpload, Screening: state, UploadLimit: "10MB"})

	for _, want := range []string{`src="data:image/png;base64,aGVsbG8="`, "Hot Spot", "HIGH", "87% confidence", "badge-high", "Chat About These Results", "Important Disclaimer"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected upload page to contain %q", want)
		}
	}
}

func TestRender_UploadEmptyAndError(t *testing.T) {
	state := &screening.State{ID: "ws", Error: ingestion.InvalidImageMessage}
	html := render(t, Page{View: ViewUpload, Screening: state, UploadLimit: "10MB"})

	if !strings.Contains(html, `enctype="multipart/form-data"`) {
		t.Error("Expected the upload form")
	}
	if !strings.Contains(html, "Please select a valid image file.") {
		t.Error("Expected the inline error")
	}
	if !strings.Contains(html, "Max 10MB") {
		t.Error("Expected the upload limit")
	}
}

func TestRender_UploadNoConditions(t *testing.T) {
	state := &screening.State{
		ID:     "ws",
		Image:  &ingestion.Image{Preview: "data:image/png;base64,aGVsbG8="},
		Report: screening.BuildReport(&detection.AnalysisResult{Detections: []detection.Detection{}}),
	}
	html := render(t, Page{View: ViewUpload, Screening: state})

	if !strings.Contains(html, "No specific skin conditions detected.") {
		t.Error("Expected the no-conditions advisory")
	}
	if strings.Contains(html, "Detected Conditions:") {
		t.Error("Expected no condition cards")
	}
}

func TestRender_Conversation(t *testing.T) {
	messages := []conversation.Message{
		{ID: 1, Text: conversation.Greeting, IsBot: true, Timestamp: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 2, Text: "<b>is it bad?</b>", Timestamp: time.Date(2024, 1, 1, 9, 31, 0, 0, time.UTC)},
	}
	html := render(t, Page{View: ViewConversation, Messages: messages, Sending: true})

	if !strings.Contains(html, `id="message-2"`) || !strings.Contains(html, "09:31") {
		t.Error("Expected the transcript to be rendered")
	}
	if strings.Contains(html, "<b>is it bad?</b>") {
		t.Error("Expected user text to be escaped")
	}
	if !strings.Contains(html, "disabled") {
		t.Error("Expected the form to be disabled while sending")
	}
}

func TestPreviewURL_RejectsNonImageURLs(t *testing.T) {
	preview := funcs["previewURL"].(func(string) template.URL)

	if got := preview("data:image/png;base64,AAAA"); got != "data:image/png;base64,AAAA" {
		t.Errorf("Expected image data URL to pass, got %q", got)
	}
	for _, input := range []string{"javascript:alert(1)", "data:text/html;base64,AAAA", "https://example.com/a.png"} {
		if got := preview(input); got != "" {
			t.Errorf("Expected %q to be dropped, got %q", input, got)
		}
	}
}
