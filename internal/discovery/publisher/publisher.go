// Package publisher emits Discovery Records to a Kafka/Redpanda topic as a
// best-effort side channel alongside the synchronous
// store.InsertCapturedDomain call: the store remains the system of record,
// this is for downstream consumers (e.g. an auto-enqueue-for-scanning
// worker) that would otherwise have to poll it.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Event is one Discovery Record (spec.md §3.5) to publish.
type Event struct {
	Domain         string         `json:"domain"`
	DiscoveredFrom string         `json:"discovered_from"`
	Method         string         `json:"method"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Publisher produces Events onto a Kafka/Redpanda topic, either
// synchronously (default, one Emit call blocks for the produce ack) or
// asynchronously via a buffered channel drained by a background goroutine.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger

	async  chan Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// Option configures a Publisher at construction.
type Option func(*Publisher)

// WithAsyncBuffer switches Emit to non-blocking mode: events are queued on
// a channel of the given size and produced by a background goroutine. A
// full buffer drops the event (logged, not fatal) rather than blocking the
// caller — mirrors the teacher's audit publisher's async-mode tradeoff.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.async = make(chan Event, size)
	}
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher dials brokers, ensures topic exists (idempotent
// create-if-missing via kadm), and returns a ready Publisher.
func NewPublisher(ctx context.Context, brokers []string, topic string, opts ...Option) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}

	admin := kadm.NewClient(client)
	defer admin.Close()
	if _, err := admin.CreateTopics(ctx, 3, -1, nil, topic); err != nil {
		// CreateTopics errors (e.g. topic already exists) are non-fatal:
		// AllowAutoTopicCreation covers us if this best-effort call fails.
		slog.Default().Warn("publisher: topic create-if-missing failed", "topic", topic, "error", err)
	}

	p := &Publisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.async != nil {
		p.wg.Add(1)
		go p.drain()
	}

	return p, nil
}

// Emit publishes event, defaulting Timestamp to time.Now() if unset. In
// async mode it enqueues and returns immediately (nil error means
// "accepted", not "delivered"); in sync mode it blocks for the produce ack.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.async != nil {
		select {
		case p.async <- event:
			return nil
		default:
			p.logger.Warn("publisher: async buffer full, dropping discovery event", "domain", event.Domain)
			return nil
		}
	}

	return p.produce(ctx, event)
}

func (p *Publisher) produce(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(event.Domain), Value: payload}
	return p.client.ProduceSync(ctx, record).FirstErr()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.async:
			if err := p.produce(context.Background(), event); err != nil {
				p.logger.Warn("publisher: failed to produce discovery event", "domain", event.Domain, "error", err)
			}
		case <-p.closed:
			// Drain whatever remains buffered before exiting.
			for {
				select {
				case event := <-p.async:
					if err := p.produce(context.Background(), event); err != nil {
						p.logger.Warn("publisher: failed to produce discovery event", "domain", event.Domain, "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

// Close drains any buffered async events and closes the underlying client.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.async != nil {
			close(p.closed)
			p.wg.Wait()
		}
		p.client.Close()
	})
}
