package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event Event) { panic("boom") }
func (panickingObserver) GetObserverName() string                  { return "panicking" }

func TestMetricsObserver_Counts(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(metrics)

	ctx := context.Background()
	events := []Event{
		{EventType: ImageSelected},
		{EventType: ImageRejected},
		{EventType: AnalysisStarted},
		{EventType: AnalysisCompleted, Duration: 200 * time.Millisecond, Success: true},
		{EventType: AnalysisStarted},
		{EventType: AnalysisCompleted, Duration: 400 * time.Millisecond, Success: true},
		{EventType: AnalysisStarted},
		{EventType: AnalysisFailed},
		{EventType: AnalysisDiscarded},
		{EventType: ChatReplied},
		{EventType: ChatFailed},
		{EventType: ReportArchived},
		{EventType: ReportArchiveFailed},
	}
	for _, e := range events {
		publisher.NotifyObservers(ctx, e)
	}

	got := metrics.GetMetrics()
	want := map[string]int64{
		"images_selected":       1,
		"images_rejected":       1,
		"total_analyses":        3,
		"successful_analyses":   2,
		"failed_analyses":       1,
		"discarded_analyses":    1,
		"avg_analysis_time_ms":  300,
		"chat_replies":          1,
		"chat_failures":         1,
		"reports_archived":      1,
		"report_archive_errors": 1,
	}
	for key, expected := range want {
		if got[key] != expected {
			t.Errorf("%s: expected %d, got %v", key, expected, got[key])
		}
	}
}

func TestEventPublisher_RecoversFromPanic(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(metrics)

	publisher.NotifyObservers(context.Background(), Event{EventType: ChatReplied})

	if metrics.GetMetrics()["chat_replies"] != int64(1) {
		t.Error("Expected later observers to still receive the event")
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(metrics)
	publisher.Unsubscribe(metrics)

	publisher.NotifyObservers(context.Background(), Event{EventType: ChatReplied})

	if metrics.GetMetrics()["chat_replies"] != int64(0) {
		t.Error("Expected unsubscribed observer to receive nothing")
	}
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	NewLoggingObserver(logger).OnEvent(context.Background(), Event{
		EventType:    AnalysisFailed,
		SessionID:    "abc",
		Duration:     1500 * time.Millisecond,
		ErrorMessage: "upstream returned status 500",
		Metadata:     map[string]interface{}{"generation": 2},
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON log line, got %q", buf.String())
	}
	if entry["level"] != "error" {
		t.Errorf("Expected error level, got %v", entry["level"])
	}
	if entry["session_id"] != "abc" || entry["duration_ms"] != float64(1500) {
		t.Errorf("Unexpected fields: %v", entry)
	}
	if !strings.Contains(entry["error"].(string), "status 500") {
		t.Errorf("Expected error message field, got %v", entry["error"])
	}
	if entry["generation"] != float64(2) {
		t.Errorf("Expected metadata to be flattened, got %v", entry["generation"])
	}
}
