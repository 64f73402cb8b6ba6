package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	topic string
	body  []byte
}

func (f *fakeSNS) Publish(ctx context.Context, topicArn string, message []byte) error {
	f.topic, f.body = topicArn, message
	return nil
}

type fakeKafka struct {
	key   string
	value []byte
	err   error
}

func (f *fakeKafka) Send(ctx context.Context, key string, value []byte) error {
	f.key, f.value = key, value
	return f.err
}

func TestSNSEventPublisher(t *testing.T) {
	client := &fakeSNS{}
	pub := NewSNSEventPublisher(client, "arn:aws:sns:us-east-1:000000000000:catalog-sync")

	require.NoError(t, pub.Publish(context.Background(), SyncEvent{Type: EventImportCompleted, CatalogID: "77", Processed: 3}))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:catalog-sync", client.topic)

	var got SyncEvent
	require.NoError(t, json.Unmarshal(client.body, &got))
	assert.Equal(t, EventImportCompleted, got.Type)
	assert.Equal(t, 3, got.Processed)
}

func TestKafkaEventPublisherKeysByCatalog(t *testing.T) {
	producer := &fakeKafka{}
	pub := NewKafkaEventPublisher(producer)

	require.NoError(t, pub.Publish(context.Background(), SyncEvent{Type: EventImportAborted, CatalogID: "77"}))
	assert.Equal(t, "77", producer.key)

	require.NoError(t, pub.Publish(context.Background(), SyncEvent{Type: EventRemovalCompleted, Manufacturer: "Acme"}))
	assert.Equal(t, "Acme", producer.key)
}

func TestPublishEventSwallowsErrors(t *testing.T) {
	pub := NewKafkaEventPublisher(&fakeKafka{err: errors.New("down")})

	assert.NotPanics(t, func() {
		publishEvent(context.Background(), pub, SyncEvent{Type: EventImportCompleted})
	})
}
