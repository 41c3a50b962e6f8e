package repository

import (
	"context"
	"fmt"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

type keyedPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaRunPublisher emits vetting-completed events keyed by target.
type KafkaRunPublisher struct {
	p     keyedPublisher
	topic string
}

func NewKafkaRunPublisher(p keyedPublisher, topic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{p: p, topic: topic}
}

func (k *KafkaRunPublisher) PublishCompleted(ctx context.Context, ev models.VettingCompleted) error {
	if err := k.p.Publish(ctx, k.topic, []byte(ev.TicID), ev); err != nil {
		return fmt.Errorf("publish completed %s: %w", ev.TicID, err)
	}
	return nil
}

func (k *KafkaRunPublisher) Close() error {
	return k.p.Close()
}

// NoopRunPublisher is used when Kafka is disabled.
type NoopRunPublisher struct{}

func (NoopRunPublisher) PublishCompleted(context.Context, models.VettingCompleted) error { return nil }
func (NoopRunPublisher) Close() error                                                   { return nil }
