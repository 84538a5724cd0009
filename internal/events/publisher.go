package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PathSaved is emitted after a path commit so downstream consumers
// (feed, post creation) can react without querying.
type PathSaved struct {
	PathNo           int64     `json:"path_no"`
	UserNo           int64     `json:"user_no"`
	TotalDistanceKm  float64   `json:"total_distance"`
	EstimatedTimeMin float64   `json:"estimated_time"`
	PointCount       int       `json:"point_count"`
	CreatedAt        time.Time `json:"created_at"`
}

type Publisher interface {
	PublishPathSaved(ctx context.Context, evt PathSaved) error
	Close() error
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishPathSaved(context.Context, PathSaved) error { return nil }
func (NopPublisher) Close() error                                      { return nil }

// KafkaPublisher writes PathSaved events keyed by path number.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishPathSaved(ctx context.Context, evt PathSaved) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.PathNo, 10)),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn("path saved event publish failed",
			zap.Int64("path_no", evt.PathNo), zap.Error(err))
	}
	return err
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
