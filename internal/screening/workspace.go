package screening

import (
	"sync"

	"fursaver-site/internal/detection"
	"fursaver-site/internal/ingestion"
)

// Workspace is one visitor's upload panel. Every Select or Reset starts a new
// generation; an analysis result is only stored if its generation is still
// current when it arrives.
type Workspace struct {
	ID string

	mu         sync.Mutex
	image      *ingestion.Image
	result     *detection.AnalysisResult
	errMessage string
	generation uint64
	inFlight   int
}

// State is a snapshot of a workspace for rendering
type State struct {
	ID        string           `json:"id"`
	Image     *ingestion.Image `json:"image,omitempty"`
	Report    *Report          `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	Analyzing bool             `json:"analyzing"`
}

func NewWorkspace(id string) *Workspace {
	return &Workspace{ID: id}
}

// Select makes img the current photo and drops any prior result or error.
func (w *Workspace) Select(img *ingestion.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.image = img
	w.result = nil
	w.errMessage = ""
	w.generation++
}

// Reject records an inline message for a refused upload. The current photo,
// if any, is kept.
func (w *Workspace) Reject(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMessage = message
}

// Reset returns the workspace to the empty upload prompt.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.image = nil
	w.result = nil
	w.errMessage = ""
	w.generation++
}

// begin snapshots the photo for an analysis. ok is false with no photo.
func (w *Workspace) begin() (img *ingestion.Image, generation uint64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.image == nil {
		return nil, 0, false
	}
	w.inFlight++
	w.errMessage = ""
	return w.image, w.generation, true
}

// finish stores the outcome of the analysis started at generation and
// reports whether it was still current. A failed analysis leaves the photo
// and any earlier result in place.
func (w *Workspace) finish(generation uint64, result *detection.AnalysisResult, errMessage string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.inFlight--
	if generation != w.generation {
		return false
	}
	if result != nil {
		w.result = result
	}
	w.errMessage = errMessage
	return true
}

// Result returns the current analysis result, or nil.
func (w *Workspace) Result() *detection.AnalysisResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		ID:        w.ID,
		Image:     w.image,
		Report:    BuildReport(w.result),
		Error:     w.errMessage,
		Analyzing: w.inFlight > 0,
	}
}
