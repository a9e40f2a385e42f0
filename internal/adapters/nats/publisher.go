package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/martivilar/camins/internal/core/domain"
)

// Subjects and streams for the job pipeline. Job dispatch uses a work
// queue so exactly one worker picks each job up; status events use
// interest retention because they only matter to live listeners.
const (
	SubjectJobCreated = "routes.jobs.created"
	subjectJobStatus  = "routes.jobs.%s.status"

	// SubjectJobWildcard matches every job subject, for relays.
	SubjectJobWildcard = "routes.jobs.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the job
// streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "ROUTE_JOBS",
			Subjects:  []string{SubjectJobCreated},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "ROUTE_JOB_STATUS",
			Subjects:  []string{"routes.jobs.*.status"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishJobCreated hands a new job to the worker pool.
func (p *Publisher) PublishJobCreated(ctx context.Context, j *domain.RouteJob) error {
	data, err := json.Marshal(struct {
		JobID string `json:"job_id"`
	}{JobID: j.ID})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectJobCreated, data)
	return err
}

// PublishJobEvent broadcasts a job status change.
func (p *Publisher) PublishJobEvent(ctx context.Context, e *domain.JobEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(fmt.Sprintf(subjectJobStatus, e.JobID), data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
