package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// smsJob is the record consumed by the SMS gateway worker
type smsJob struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// KafkaNotifier publishes SMS jobs to a topic keyed by phone number so that
// messages to one recipient stay ordered.
type KafkaNotifier struct {
	writer MessageWriter
	track  *tracker
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, track: newTracker()}
}

func (n *KafkaNotifier) Send(ctx context.Context, to, body string) (Receipt, error) {
	job := smsJob{ID: uuid.NewString(), To: to, Body: body, QueuedAt: time.Now().UTC()}
	value, err := json.Marshal(job)
	if err != nil {
		return Receipt{}, err
	}

	r := Receipt{ID: job.ID, To: to, Status: StatusQueued}
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(to), Value: value}); err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		n.track.record(r)
		return r, err
	}
	return n.track.record(r), nil
}

func (n *KafkaNotifier) Status(_ context.Context, id string) (Receipt, error) {
	return n.track.get(id)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
