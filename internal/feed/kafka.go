package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"live-auction/internal/gateway"
	"live-auction/internal/metrics"
	"live-auction/internal/models"
	"live-auction/utils"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=kafka.go -destination=mock_feed.go -package=feed

// MessageWriter is the subset of *kafka.Writer the feed uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Source is where the feed subscribes for events.
type Source interface {
	Join(kind string) *gateway.Subscriber
	Leave(id string)
	Closed() bool
}

// Header values marking why a message was written.
const (
	sourceHeader   = "source"
	sourceBid      = "bid"
	sourceSnapshot = "snapshot"
)

// maxBatch caps how many queued events go into one WriteMessages call.
const maxBatch = 100

// BidFeed mirrors every accepted bid-update to a Kafka topic, keyed by item
// id so one item's updates stay ordered within a partition.
type BidFeed struct {
	writer  MessageWriter
	metrics metrics.Recorder
}

// NewKafkaWriter builds a synchronous writer for the given brokers and topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		BatchSize:              maxBatch,
		BatchTimeout:           time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// New creates a feed publishing through writer.
func New(writer MessageWriter, recorder metrics.Recorder) *BidFeed {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &BidFeed{writer: writer, metrics: recorder}
}

// Run publishes bid updates until ctx is cancelled or the source closes. If
// the gateway evicts the feed for falling behind, the feed publishes what was
// still queued, joins again and republishes every item from the new
// initial-state, so the latest message per key is always the current state.
func (f *BidFeed) Run(ctx context.Context, src Source) error {
	resync := false
	for {
		sub := src.Join("feed")
		utils.Info("feed: subscribed", map[string]any{"subscriber_id": sub.ID(), "resync": resync})

		done := f.consume(ctx, sub, resync)
		src.Leave(sub.ID())

		if done {
			return nil
		}
		if src.Closed() {
			utils.Info("feed: gateway closed, stopping", map[string]any{"subscriber_id": sub.ID()})
			return nil
		}
		utils.Warn("feed: dropped by gateway, resubscribing", map[string]any{"subscriber_id": sub.ID()})
		resync = true
	}
}

// consume reports true when ctx ended and false when the subscriber was dropped.
func (f *BidFeed) consume(ctx context.Context, sub *gateway.Subscriber, resync bool) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case <-sub.Done():
			f.publish(ctx, collect(nil, sub), resync)
			return false
		case ev := <-sub.Events():
			f.publish(ctx, collect([]gateway.Event{ev}, sub), resync)
		}
	}
}

// collect appends whatever is already queued, up to maxBatch events.
func collect(batch []gateway.Event, sub *gateway.Subscriber) []gateway.Event {
	for len(batch) < maxBatch {
		select {
		case ev := <-sub.Events():
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (f *BidFeed) publish(ctx context.Context, events []gateway.Event, resync bool) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		switch ev.Name {
		case gateway.EventBidUpdate:
			if item, ok := ev.Data.(models.AuctionItem); ok {
				msgs = f.appendMessage(msgs, ev, item, sourceBid)
			}
		case gateway.EventInitialState:
			state, ok := ev.Data.(gateway.InitialState)
			if !ok || !resync {
				continue
			}
			for _, item := range state.Items {
				msgs = f.appendMessage(msgs, gateway.Event{Name: gateway.EventBidUpdate, Data: item}, item, sourceSnapshot)
			}
		}
	}
	if len(msgs) == 0 {
		return
	}

	if err := f.writer.WriteMessages(ctx, msgs...); err != nil {
		f.metrics.RecordFeedError()
		utils.Error("feed: failed to publish bid updates", map[string]any{
			"messages": len(msgs),
			"error":    err.Error(),
		})
	}
}

func (f *BidFeed) appendMessage(msgs []kafka.Message, ev gateway.Event, item models.AuctionItem, source string) []kafka.Message {
	value, err := json.Marshal(ev)
	if err != nil {
		f.metrics.RecordFeedError()
		utils.Error("feed: failed to encode bid update", map[string]any{"item_id": item.ID, "error": err.Error()})
		return msgs
	}
	return append(msgs, kafka.Message{
		Key:     []byte(strconv.Itoa(item.ID)),
		Value:   value,
		Headers: []kafka.Header{{Key: sourceHeader, Value: []byte(source)}},
	})
}

// Close flushes and closes the underlying writer.
func (f *BidFeed) Close() error {
	return f.writer.Close()
}
