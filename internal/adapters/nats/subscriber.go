package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeJobCreated delivers new job IDs to the handler. Messages are
// acked only after the handler returns nil, so a crashed worker's jobs
// get redelivered up to the MaxDeliver limit.
func (s *Subscriber) SubscribeJobCreated(ctx context.Context, handler func(ctx context.Context, jobID string) error) error {
	sub, err := s.js.QueueSubscribe(SubjectJobCreated, "route-workers", func(msg *nats.Msg) {
		var payload struct {
			JobID string `json:"job_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, payload.JobID); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("route-worker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
