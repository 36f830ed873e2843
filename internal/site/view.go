package site

import "strings"

// View is the panel shown on the page. Exactly one is active at a time.
type View int

const (
	ViewLanding View = iota
	ViewUpload
	ViewConversation
)

// ParseView reads the view query parameter. Anything unrecognised is the
// landing page.
func ParseView(s string) View {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upload":
		return ViewUpload
	case "chat", "conversation":
		return ViewConversation
	default:
		return ViewLanding
	}
}

func (v View) String() string {
	switch v {
	case ViewUpload:
		return "upload"
	case ViewConversation:
		return "chat"
	default:
		return "landing"
	}
}

// Path is the URL that shows this view
func (v View) Path() string {
	if v == ViewLanding {
		return "/"
	}
	return "/?view=" + v.String()
}
