package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"asset-buyback-api/internal/model"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	AssetCreated       EventType = "asset.created"
	AssetUpdated       EventType = "asset.updated"
	AssetStatusChanged EventType = "asset.status_changed"
	AssetDeleted       EventType = "asset.deleted"
)

// Event is the message value written to the topic, keyed by asset ID.
type Event struct {
	Type       EventType    `json:"type"`
	Asset      *model.Asset `json:"asset"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Publisher is what the asset service needs from an event sink.
type Publisher interface {
	Produce(eventType EventType, asset *model.Asset)
	Close()
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes asset lifecycle events from a buffered queue. When the
// queue is full new events are dropped and logged.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
	timeout   time.Duration
}

// ProducerConfig configures NewProducer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	BufferSize   int
}

func NewProducer(cfg ProducerConfig, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		Topic:                  cfg.Topic,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, cfg.BufferSize, logger)
}

func newProducer(writer KafkaWriter, bufferSize int, logger *zap.Logger) *Producer {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, bufferSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
		timeout:   10 * time.Second,
	}

	go p.eventLoop()
	return p
}

// EnsureTopic creates the topic on the first broker if it does not exist.
func EnsureTopic(brokers []string, topic string, logger *zap.Logger) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		logger.Warn("failed to dial kafka broker", zap.String("broker", brokers[0]), zap.Error(err))
		return
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}
}

func (p *Producer) Produce(eventType EventType, asset *model.Asset) {
	event := Event{Type: eventType, Asset: asset, OccurredAt: time.Now().UTC()}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("asset_id", asset.ID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.send(event)
		case <-p.closeChan:
			// Flush what is already queued
			for {
				select {
				case event := <-p.events:
					p.send(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) send(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.sendEvent(ctx, event)
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("asset_id", event.Asset.ID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Asset.ID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("asset_id", event.Asset.ID.String()),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopPublisher discards every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Produce(EventType, *model.Asset) {}

func (NopPublisher) Close() {}
