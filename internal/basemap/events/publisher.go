package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
	obs "github.com/mohammed-shakir/geopreview/internal/core/observability"
)

// Publisher implements basemap.Notifier on a Kafka topic. Messages are keyed
// by settings key so all changes to one document land on one partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	source   string
	now      func() time.Time
}

func NewPublisher(cfg Config, source string) (*Publisher, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("producer create: %w", err)
	}
	return NewPublisherWithProducer(prod, cfg.Topic, source), nil
}

func NewPublisherWithProducer(p sarama.SyncProducer, topic, source string) *Publisher {
	return &Publisher{producer: p, topic: topic, source: source, now: time.Now}
}

func (p *Publisher) Notify(_ context.Context, c basemap.Change) error {
	ev := fromChange(c, p.source, p.now())
	b, err := json.Marshal(ev)
	if err != nil {
		obs.IncEventError("encode")
		return fmt.Errorf("encode event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Key),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		obs.IncEventError("publish")
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("producer close: %w", err)
	}
	return nil
}

// NopPublisher drops every change; used when replication is disabled.
type NopPublisher struct{}

func (NopPublisher) Notify(context.Context, basemap.Change) error { return nil }
