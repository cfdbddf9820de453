// Package notify delivers SMS-style text notifications to phone numbers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"agrimarket/internal/translate"
	"agrimarket/pkg/logger"
)

var ErrUnknownMessage = errors.New("unknown notification id")

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Receipt identifies one outbound message and its last known status
type Receipt struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notifier interface {
	Send(ctx context.Context, to, body string) (Receipt, error)
	Status(ctx context.Context, id string) (Receipt, error)
}

// Receipt retention for status polling
const (
	ReceiptTTL  = 24 * time.Hour
	MaxReceipts = 10000
)

// tracker keeps receipts in memory for status polling. Entries expire after
// ttl and the oldest are evicted once more than limit are held.
type tracker struct {
	mu       sync.RWMutex
	receipts map[string]trackedReceipt
	order    []string // ids, oldest first
	ttl      time.Duration
	limit    int
	now      func() time.Time
}

type trackedReceipt struct {
	Receipt
	added time.Time
}

func newTracker() *tracker {
	return newBoundedTracker(ReceiptTTL, MaxReceipts, time.Now)
}

func newBoundedTracker(ttl time.Duration, limit int, now func() time.Time) *tracker {
	return &tracker{receipts: make(map[string]trackedReceipt), ttl: ttl, limit: limit, now: now}
}

func (t *tracker) record(r Receipt) Receipt {
	now := t.now()
	r.UpdatedAt = now

	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.receipts[r.ID]
	if !ok {
		entry.added = now
		t.order = append(t.order, r.ID)
	}
	entry.Receipt = r
	t.receipts[r.ID] = entry
	t.evict(now)
	return r
}

// evict drops expired entries and the oldest beyond limit. Caller holds mu.
func (t *tracker) evict(now time.Time) {
	for len(t.order) > 0 {
		oldest := t.order[0]
		if len(t.receipts) <= t.limit && now.Sub(t.receipts[oldest].added) < t.ttl {
			return
		}
		delete(t.receipts, oldest)
		t.order[0] = ""
		t.order = t.order[1:]
	}
}

func (t *tracker) get(id string) (Receipt, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.receipts[id]
	if !ok || t.now().Sub(entry.added) >= t.ttl {
		return Receipt{}, ErrUnknownMessage
	}
	return entry.Receipt, nil
}

func (t *tracker) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.receipts)
}

// LogNotifier writes messages to the log instead of a gateway. Used when no
// broker is configured.
type LogNotifier struct {
	track *tracker
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{track: newTracker()}
}

func (n *LogNotifier) Send(_ context.Context, to, body string) (Receipt, error) {
	r := Receipt{ID: uuid.NewString(), To: to, Status: StatusSent}
	logger.Info("SMS notification", map[string]any{"id": r.ID, "to": to, "body": body})
	return n.track.record(r), nil
}

func (n *LogNotifier) Status(_ context.Context, id string) (Receipt, error) {
	return n.track.get(id)
}

// Recipient is a phone number plus the language messages should be rendered in
type Recipient struct {
	Phone    string
	Language string
}

// Messenger translates and sends notifications, logging rather than returning failures
type Messenger struct {
	notifier   Notifier
	translator translate.Translator
	timeout    time.Duration
}

func NewMessenger(n Notifier, tr translate.Translator, timeout time.Duration) *Messenger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Messenger{notifier: n, translator: tr, timeout: timeout}
}

// Notify sends body to every recipient with a phone number. Empty phones are skipped.
func (m *Messenger) Notify(ctx context.Context, body string, recipients ...Recipient) []Receipt {
	if m == nil || m.notifier == nil {
		return nil
	}

	var receipts []Receipt
	for _, rcpt := range recipients {
		if rcpt.Phone == "" {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
		text := translate.OrOriginal(sendCtx, m.translator, body, rcpt.Language)
		r, err := m.notifier.Send(sendCtx, rcpt.Phone, text)
		cancel()
		if err != nil {
			logger.Warn("SMS notification failed", map[string]any{"to": rcpt.Phone, "error": err.Error()})
			continue
		}
		receipts = append(receipts, r)
	}
	return receipts
}

// Status proxies a receipt lookup to the underlying notifier
func (m *Messenger) Status(ctx context.Context, id string) (Receipt, error) {
	if m == nil || m.notifier == nil {
		return Receipt{}, ErrUnknownMessage
	}
	return m.notifier.Status(ctx, id)
}
