package screening

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"fursaver-site/internal/condition"
	"fursaver-site/internal/detection"
	apperrors "fursaver-site/internal/errors"
	"fursaver-site/internal/ingestion"
	"fursaver-site/internal/logger"
	"fursaver-site/internal/observer"
	"fursaver-site/internal/storage"
)

// Service runs the upload and analysis flow for every visitor
type Service struct {
	store     *storage.SessionStore[*Workspace]
	ingester  *ingestion.Ingester
	detector  detection.Detector
	apiKey    string
	publisher observer.Subject
	archiver  Archiver
}

func NewService(
	store *storage.SessionStore[*Workspace],
	ingester *ingestion.Ingester,
	detector detection.Detector,
	apiKey string,
	publisher observer.Subject,
	archiver Archiver,
) *Service {
	if archiver == nil {
		archiver = NoopArchiver()
	}
	return &Service{
		store:     store,
		ingester:  ingester,
		detector:  detector,
		apiKey:    apiKey,
		publisher: publisher,
		archiver:  archiver,
	}
}

// Open creates an empty workspace
func (s *Service) Open() *Workspace {
	return s.store.Create(NewWorkspace)
}

func (s *Service) Get(id string) (*Workspace, error) {
	ws, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, apperrors.NewNotFoundError("screening not found", err)
		}
		return nil, apperrors.NewInternalError("failed to load screening", err)
	}
	return ws, nil
}

// SelectImage ingests an upload into the workspace. A rejected upload leaves
// an inline message on the workspace and is also returned as an error.
func (s *Service) SelectImage(ctx context.Context, id string, r io.Reader, filename, contentType string) (State, error) {
	ws, err := s.Get(id)
	if err != nil {
		return State{}, err
	}

	img, err := s.ingester.SelectImage(ctx, r, filename, contentType)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			ws.Reject(appErr.Message)
		} else {
			ws.Reject(ingestion.InvalidImageMessage)
		}
		s.publisher.NotifyObservers(ctx, observer.Event{
			EventType:    observer.ImageRejected,
			SessionID:    ws.ID,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"declared_type": contentType},
		})
		return ws.Snapshot(), err
	}

	ws.Select(img)
	s.publisher.NotifyObservers(ctx, observer.Event{
		EventType: observer.ImageSelected,
		SessionID: ws.ID,
		Success:   true,
		Metadata: map[string]interface{}{
			"content_type": img.ContentType,
			"size":         img.Size,
			"hints":        len(img.Hints),
		},
	})
	return ws.Snapshot(), nil
}

// Analyze sends the current photo to the detector. One attempt per call;
// calls for the same photo are not deduplicated and the last to finish wins.
func (s *Service) Analyze(ctx context.Context, id string) (State, error) {
	ws, err := s.Get(id)
	if err != nil {
		return State{}, err
	}

	img, generation, ok := ws.begin()
	if !ok {
		return ws.Snapshot(), apperrors.NewValidationError("select a photo before analyzing", nil)
	}

	s.publisher.NotifyObservers(ctx, observer.Event{
		EventType: observer.AnalysisStarted,
		SessionID: ws.ID,
		Metadata:  map[string]interface{}{"generation": generation},
	})
	start := time.Now()

	result, err := s.detector.Analyze(ctx, img.Payload, s.apiKey)
	if err != nil {
		current := ws.finish(generation, nil, detection.FailureMessage)
		s.publisher.NotifyObservers(ctx, observer.Event{
			EventType:    observer.AnalysisFailed,
			SessionID:    ws.ID,
			Duration:     time.Since(start),
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"generation": generation, "current": current},
		})
		return ws.Snapshot(), err
	}

	if !ws.finish(generation, result, "") {
		s.publisher.NotifyObservers(ctx, observer.Event{
			EventType: observer.AnalysisDiscarded,
			SessionID: ws.ID,
			Duration:  time.Since(start),
			Metadata:  map[string]interface{}{"generation": generation},
		})
		return ws.Snapshot(), nil
	}

	s.flagUnknownLabels(ws.ID, result)
	s.publisher.NotifyObservers(ctx, observer.Event{
		EventType: observer.AnalysisCompleted,
		SessionID: ws.ID,
		Duration:  time.Since(start),
		Success:   true,
		Metadata:  map[string]interface{}{"detections": len(result.Detections)},
	})

	state := ws.Snapshot()
	s.archiver.Archive(ws.ID, BuildReport(result))
	return state, nil
}

// Close discards the workspace and everything it holds
func (s *Service) Close(id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return apperrors.NewNotFoundError("screening not found", err)
		}
		return apperrors.NewInternalError("failed to close screening", err)
	}
	return nil
}

// Reset clears the photo, result and error
func (s *Service) Reset(ctx context.Context, id string) (State, error) {
	ws, err := s.Get(id)
	if err != nil {
		return State{}, err
	}
	ws.Reset()
	return ws.Snapshot(), nil
}

// ChatPrompt builds the assistant prompt for the workspace's current result
func (s *Service) ChatPrompt(id string) (string, error) {
	ws, err := s.Get(id)
	if err != nil {
		return "", err
	}
	result := ws.Result()
	if result == nil {
		return "", apperrors.NewValidationError("analyze a photo before asking about the results", nil)
	}
	return ChatPrompt(result), nil
}

func (s *Service) flagUnknownLabels(sessionID string, result *detection.AnalysisResult) {
	for _, d := range result.Detections {
		if condition.Known(d.Label) {
			continue
		}
		fields := logrus.Fields{"session_id": sessionID, "label": d.Label}
		if info, distance, ok := condition.Nearest(d.Label); ok {
			fields["nearest"] = info.Name
			fields["distance"] = distance
		}
		logger.WithFields(fields).Warn("Detector returned an unrecognised condition label")
	}
}

// Active reports how many workspaces are held in memory
func (s *Service) Active() int {
	return s.store.Len()
}
