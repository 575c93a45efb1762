package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// Subjects
const (
	ResultsSubjectPrefix = "explore.results."
	WarmupSubject        = "explore.warmup.request"
)

// ResultsSubject is the subject result batches of one session are published on.
func ResultsSubject(sessionID string) string {
	return ResultsSubjectPrefix + sessionID
}

// Streams returns the JetStream streams the service relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "EXPLORE_RESULTS",
			Subjects:  []string{ResultsSubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    15 * time.Minute,
			Storage:   nats.MemoryStorage,
		},
		{
			Name:      "EXPLORE_WARMUP",
			Subjects:  []string{"explore.warmup.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishResults publishes the places a page added to a session.
func (p *Publisher) PublishResults(ctx context.Context, batch *domain.ResultBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ResultsSubject(batch.SessionID), data, nats.Context(ctx))
	return err
}

// PublishWarmupRequest queues a cache warmup for the warmer service.
func (p *Publisher) PublishWarmupRequest(ctx context.Context, req *domain.WarmupRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(WarmupSubject, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("nearbite"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
