// Package events publishes image lifecycle notifications to Kafka for
// downstream consumers. Publishing is best effort: a broker outage must
// never fail the request that triggered the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventUploaded      = "image.uploaded"
	EventEnhanced      = "image.enhanced"
	EventEnhanceFailed = "image.enhance_failed"
)

type Event struct {
	Event   string    `json:"event"`
	ImageID string    `json:"imageId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event, imageID, status string)
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(broker, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event, imageID, status string) {
	payload, err := json.Marshal(Event{Event: event, ImageID: imageID, Status: status, At: time.Now().UTC()})
	if err != nil {
		p.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(imageID), Value: payload}); err != nil {
		p.log.Error("publish event",
			zap.String("event", event),
			zap.String("image_id", imageID),
			zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, string) {}
func (Nop) Close() error                                    { return nil }
