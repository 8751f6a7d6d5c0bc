package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaBus publishes every event to one Kafka topic keyed by origin. Each
// subscription reads the topic with its own consumer group so that every
// instance sees every event.
type KafkaBus struct {
	writer    messageWriter
	newReader func(groupID string) messageReader
	groupBase string
	log       logging.Logger

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	wg      sync.WaitGroup
	nextID  int
	closed  bool
}

// NewKafkaBus connects to brokers. groupBase should be unique per instance.
func NewKafkaBus(brokers []string, topic, groupBase string, log logging.Logger) *KafkaBus {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	newReader := func(groupID string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
		})
	}
	return newKafkaBus(w, newReader, groupBase, log)
}

func newKafkaBus(w messageWriter, newReader func(string) messageReader, groupBase string, log logging.Logger) *KafkaBus {
	return &KafkaBus{
		writer:    w,
		newReader: newReader,
		groupBase: groupBase,
		log:       log,
		cancels:   make(map[int]context.CancelFunc),
	}
}

func (b *KafkaBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(e.Origin), Value: payload}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(origin, topic string, fn func(Event)) (func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	id := b.nextID
	b.nextID++
	groupID := fmt.Sprintf("%s-%s-%d", b.groupBase, topic, id)
	ctx, cancel := context.WithCancel(context.Background())
	b.cancels[id] = cancel
	b.wg.Add(1)
	b.mu.Unlock()

	r := b.newReader(groupID)

	go func() {
		defer b.wg.Done()
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					b.log.Warn(ctx, "kafka read failed, stopping subscription", "topic", topic, "error", err)
				}
				return
			}
			var e Event
			if err := json.Unmarshal(msg.Value, &e); err != nil {
				b.log.Warn(ctx, "dropping malformed change event", "error", err)
				continue
			}
			if e.Origin != origin || e.Topic != topic {
				continue
			}
			fn(e)
		}
	}()

	return func() {
		b.mu.Lock()
		delete(b.cancels, id)
		b.mu.Unlock()
		cancel()
	}, nil
}

// Close cancels all subscriptions, waits for their readers to stop and
// closes the writer.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, c := range b.cancels {
		c()
	}
	clear(b.cancels)
	b.mu.Unlock()

	b.wg.Wait()
	return b.writer.Close()
}
