package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
)

const (
	SubjectImportCompleted = "listing.import.completed"
	SubjectImportFailed    = "listing.import.failed"
)

// ImportEvent is the payload published after an import run.
type ImportEvent struct {
	EventID      string                  `json:"eventId"`
	EventType    string                  `json:"eventType"`
	FileName     string                  `json:"fileName,omitempty"`
	Total        int                     `json:"total"`
	Successful   int                     `json:"successful"`
	Failed       int                     `json:"failed"`
	Skipped      int                     `json:"skipped"`
	DryRun       bool                    `json:"dryRun"`
	Statistics   models.ImportStatistics `json:"statistics"`
	ProcessingMs int64                   `json:"processingMs"`
	OccurredAt   time.Time               `json:"occurredAt"`
}

// Publisher emits import lifecycle events over NATS.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS. The URL comes from NATS_URL.
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("listings-import-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "import-events"),
	}, nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.logger.WithError(err).Warn("Failed to drain NATS connection")
		}
	}
}

// PublishImportCompleted publishes the outcome of an import run. Failed runs
// go out on their own subject so consumers can alert on them separately.
func (p *Publisher) PublishImportCompleted(fileName string, result *models.ImportResult) error {
	subject := SubjectImportCompleted
	if !result.Success {
		subject = SubjectImportFailed
	}

	event := ImportEvent{
		EventID:      uuid.New().String(),
		EventType:    subject,
		FileName:     fileName,
		Total:        result.Total,
		Successful:   result.Successful,
		Failed:       result.Failed,
		Skipped:      result.Skipped,
		DryRun:       result.DryRun,
		Statistics:   result.Statistics,
		ProcessingMs: result.ProcessingMs,
		OccurredAt:   time.Now().UTC(),
	}

	return p.publish(subject, event)
}

// publish serializes and sends the event asynchronously so the import flow
// never blocks on the broker.
func (p *Publisher) publish(subject string, event ImportEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	go func() {
		if err := p.conn.Publish(subject, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"subject": subject,
				"eventId": event.EventID,
			}).WithError(err).Error("Failed to publish import event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"subject":    subject,
			"eventId":    event.EventID,
			"total":      event.Total,
			"successful": event.Successful,
		}).Info("Import event published")
	}()

	return nil
}
