package services

import (
	"context"
	"encoding/json"
	"time"

	awspkg "catalog-sync-service/pkg/aws"

	"go.uber.org/zap"
)

const (
	EventImportCompleted  = "catalog.import.completed"
	EventImportAborted    = "catalog.import.aborted"
	EventRemovalCompleted = "catalog.removal.completed"
)

// SyncEvent announces the end of an import or removal pass.
type SyncEvent struct {
	Type         string    `json:"type"`
	CatalogID    string    `json:"catalog_id,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Processed    int       `json:"processed,omitempty"`
	Added        int       `json:"added,omitempty"`
	Updated      int       `json:"updated,omitempty"`
	Failed       int       `json:"failed,omitempty"`
	Removed      int       `json:"removed,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}

// SNSEventPublisher publishes events to one SNS topic.
type SNSEventPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client awspkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, event SyncEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, b)
}

// KafkaSender is satisfied by kafka.Producer.
type KafkaSender interface {
	Send(ctx context.Context, key string, value []byte) error
}

type KafkaEventPublisher struct {
	producer KafkaSender
}

func NewKafkaEventPublisher(producer KafkaSender) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event SyncEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := event.CatalogID
	if key == "" {
		key = event.Manufacturer
	}
	return p.producer.Send(ctx, key, b)
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, SyncEvent) error { return nil }

// publishEvent never fails the caller; a lost event is only logged.
func publishEvent(ctx context.Context, events EventPublisher, event SyncEvent) {
	if events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := events.Publish(ctx, event); err != nil {
		zap.L().Warn("Failed to publish sync event", zap.String("type", event.Type), zap.Error(err))
	}
}
