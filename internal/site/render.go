package site

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"fursaver-site/internal/condition"
	"fursaver-site/internal/conversation"
	"fursaver-site/internal/screening"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate is the name passed to gin's c.HTML
const PageTemplate = "page.html"

// Page is everything the page template renders
type Page struct {
	View        View
	Content     *Content
	Screening   *screening.State
	Messages    []conversation.Message
	Sending     bool
	Notice      string
	UploadLimit string
}

func (p Page) IsLanding() bool      { return p.View == ViewLanding }
func (p Page) IsUpload() bool       { return p.View == ViewUpload }
func (p Page) IsConversation() bool { return p.View == ViewConversation }

var funcs = template.FuncMap{
	// previews are produced by ingestion and always carry an image data URL
	"previewURL": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/") {
			return template.URL(s)
		}
		return ""
	},
	"severityClass": func(severity condition.Severity) string {
		switch severity {
		case condition.SeverityHigh:
			return "badge badge-high"
		case condition.SeverityLow:
			return "badge badge-low"
		default:
			return "badge badge-medium"
		}
	},
	"clock": func(m conversation.Message) string {
		return m.Timestamp.Format("15:04")
	},
}

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	tmpl, err := template.New(PageTemplate).Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
