package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher writes domain events to the broker.
type Publisher interface {
	WriteMessage(ctx context.Context, event string, message any) error
}

// KafkaClient publishes and consumes events on a single topic. The event name
// travels as the message key and the payload as JSON in the value.
//
// The group reader is created on the first ReadMessage so that processes which
// only publish never join the consumer group.
type KafkaClient struct {
	writer       *kafka.Writer
	readerConfig kafka.ReaderConfig

	mu     sync.Mutex
	reader *kafka.Reader
}

func NewKafkaClient(host string, port string, topic string, group string) (*KafkaClient, error) {
	if topic == "" || group == "" {
		return nil, fmt.Errorf("kafka topic and group are required")
	}

	address := fmt.Sprintf("%s:%s", host, port)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(address),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaClient{
		writer: writer,
		readerConfig: kafka.ReaderConfig{
			Brokers:        []string{address},
			GroupID:        group,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		},
	}, nil
}

func (this *KafkaClient) WriteMessage(ctx context.Context, event string, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return this.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: data,
		Time:  time.Now(),
	})
}

// ReadMessage blocks until the next event arrives and returns its name and
// JSON payload.
func (this *KafkaClient) ReadMessage(ctx context.Context) (string, string, error) {
	message, err := this.groupReader().ReadMessage(ctx)
	if err != nil {
		return "", "", err
	}

	return string(message.Key), string(message.Value), nil
}

func (this *KafkaClient) groupReader() *kafka.Reader {
	this.mu.Lock()
	defer this.mu.Unlock()

	if this.reader == nil {
		this.reader = kafka.NewReader(this.readerConfig)
	}
	return this.reader
}

func (this *KafkaClient) Close() error {
	writerErr := this.writer.Close()

	this.mu.Lock()
	defer this.mu.Unlock()

	if this.reader != nil {
		if err := this.reader.Close(); err != nil {
			return err
		}
	}
	return writerErr
}
