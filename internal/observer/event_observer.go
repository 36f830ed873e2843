package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event describes something that happened to a screening or conversation
type Event struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of event
type EventType string

const (
	ImageSelected     EventType = "image_selected"
	ImageRejected     EventType = "image_rejected"
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
	// AnalysisDiscarded when a result arrives after the photo was replaced or cleared
	AnalysisDiscarded   EventType = "analysis_discarded"
	ChatReplied         EventType = "chat_replied"
	ChatFailed          EventType = "chat_failed"
	ReportArchived      EventType = "report_archived"
	ReportArchiveFailed EventType = "report_archive_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event)
}

// LoggingObserver logs events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
		"success":    event.Success,
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Skin analysis started")
	case AnalysisCompleted:
		entry.Info("Skin analysis completed")
	case AnalysisFailed:
		entry.Error("Skin analysis failed")
	case AnalysisDiscarded:
		entry.Info("Stale analysis result discarded")
	case ImageSelected:
		entry.Debug("Photo selected")
	case ImageRejected:
		entry.Warn("Photo rejected")
	case ChatReplied:
		entry.Debug("Assistant replied")
	case ChatFailed:
		entry.Error("Assistant request failed")
	case ReportArchived:
		entry.Debug("Report archived")
	case ReportArchiveFailed:
		entry.Error("Report archive failed")
	default:
		entry.Info("Event occurred")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from events
type MetricsObserver struct {
	mu                  sync.RWMutex
	imagesSelected      int64
	imagesRejected      int64
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	discardedAnalyses   int64
	totalAnalysisTime   time.Duration
	chatReplies         int64
	chatFailures        int64
	reportsArchived     int64
	reportArchiveErrors int64
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ImageSelected:
		o.imagesSelected++
	case ImageRejected:
		o.imagesRejected++
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalAnalysisTime += event.Duration
	case AnalysisFailed:
		o.failedAnalyses++
	case AnalysisDiscarded:
		o.discardedAnalyses++
	case ChatReplied:
		o.chatReplies++
	case ChatFailed:
		o.chatFailures++
	case ReportArchived:
		o.reportsArchived++
	case ReportArchiveFailed:
		o.reportArchiveErrors++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgAnalysisTime := time.Duration(0)
	if o.successfulAnalyses > 0 {
		avgAnalysisTime = o.totalAnalysisTime / time.Duration(o.successfulAnalyses)
	}

	return map[string]interface{}{
		"images_selected":       o.imagesSelected,
		"images_rejected":       o.imagesRejected,
		"total_analyses":        o.totalAnalyses,
		"successful_analyses":   o.successfulAnalyses,
		"failed_analyses":       o.failedAnalyses,
		"discarded_analyses":    o.discardedAnalyses,
		"avg_analysis_time_ms":  avgAnalysisTime.Milliseconds(),
		"chat_replies":          o.chatReplies,
		"chat_failures":         o.chatFailures,
		"reports_archived":      o.reportsArchived,
		"report_archive_errors": o.reportArchiveErrors,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order. Observers must not block.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		p.deliver(ctx, obs, event)
	}
}

func (p *EventPublisher) deliver(ctx context.Context, obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
