package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
)

const jobEventType = "video.ingested"

// DispatchMessage is the job published for the frame-extraction workers.
type DispatchMessage struct {
	ObjectKey string `json:"object_key"`
	UserName  string `json:"user_name"`
	ToAddress string `json:"to_address"`
	FrameRate int    `json:"frame_rate"`
}

// Publisher is implemented by the Kafka producer and the RabbitMQ publisher.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
	Close(ctx context.Context) error
}

// QueueDispatcher serialises jobs as JSON and hands them to a Publisher.
// Delivery is at-least-once; consumers must be idempotent per object key.
type QueueDispatcher struct {
	publisher Publisher
}

func NewQueueDispatcher(p Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: p}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, processID string, msg DispatchMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dispatch message: %w", err)
	}

	headers := map[string]string{
		"process_id": processID,
		"event_type": jobEventType,
	}
	return d.publisher.Publish(ctx, []byte(processID), payload, headers)
}

func (d *QueueDispatcher) Close(ctx context.Context) error {
	return d.publisher.Close(ctx)
}
