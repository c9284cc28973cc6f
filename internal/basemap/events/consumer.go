package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	obs "github.com/mohammed-shakir/geopreview/internal/core/observability"
	mylog "github.com/mohammed-shakir/geopreview/internal/logger"
)

// Invalidator drops a cached settings document older than version;
// *basemap.Store satisfies it.
type Invalidator interface {
	Invalidate(key string, version uint64) bool
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	zlog   *zerolog.Logger
	target Invalidator
	seen   *versionDedupe
	retry  time.Duration
}

func NewConsumer(cfg Config, logger *slog.Logger, zl *zerolog.Logger, target Invalidator) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		zlog:   mylog.FromContext(mylog.WithComponent(context.Background(), "settings_consumer"), zl),
		target: target,
		seen:   newVersionDedupe(cfg.DedupeSize),
		retry:  2 * time.Second,
	}
}

// Start consumes settings events until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.target == nil {
		return errors.New("events: missing invalidation target")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("settings event consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("settings event consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				obs.IncEventError("consume")
				c.zlog.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				select {
				case <-ctx.Done():
				case <-time.After(c.retry):
				}
			}
		}
	}
}

// ProcessOne applies a single settings event.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.reject(ctx, msg, "decode", err)
		return fmt.Errorf("%w: json decode: %v", ErrMalformed, err)
	}
	if err := ev.Validate(); err != nil {
		c.reject(ctx, msg, "validate", err)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !c.seen.shouldApply(ev.Key, ev.SettingsVersion) {
		obs.IncEventSkipped(ev.Op)
		c.logger.DebugContext(ctx, "stale or duplicate settings event",
			"key", ev.Key, "op", ev.Op, "version", ev.SettingsVersion)
		return nil
	}

	dropped := c.target.Invalidate(ev.Key, ev.SettingsVersion)
	obs.ObserveEvent(ev.Op, nil)

	mylog.FromContext(ctx, c.zlog).Debug().
		Str("event", "settings_change").
		Str("op", ev.Op).Str("key", ev.Key).
		Uint64("version", ev.SettingsVersion).
		Str("source", ev.Source).
		Bool("dropped", dropped).
		Msg("applied settings event")
	return nil
}

func (c *Consumer) reject(ctx context.Context, msg *sarama.ConsumerMessage, kind string, err error) {
	obs.IncEventError(kind)
	mylog.FromContext(ctx, c.zlog).Warn().
		Err(err).
		Str("kind", kind).
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("skipping malformed settings event")
}
