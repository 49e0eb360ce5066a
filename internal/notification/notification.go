package notification

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Kind string

const (
	KindRoundStarted Kind = "round_started"
	KindBetPlaced    Kind = "bet_placed"
	KindCashedOut    Kind = "cashed_out"
	KindCrashed      Kind = "crashed"
	KindCountdown    Kind = "countdown"
)

// Notification is pushed to observers when something happens in a round.
// Fields that do not apply to a kind are left zero.
type Notification struct {
	Kind       Kind            `json:"type"`
	RoundID    string          `json:"roundId"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Amount     decimal.Decimal `json:"amount"`
	Payout     decimal.Decimal `json:"payout"`
	Countdown  int             `json:"countdown,omitempty"`
	At         time.Time       `json:"at"`
}

const defaultBuffer = 100

type NotificationManager struct {
	subscribers map[string]chan Notification
	buffer      int
	mu          sync.RWMutex
	log         *zap.Logger
}

func NewNotificationManager(log *zap.Logger) *NotificationManager {
	return &NotificationManager{
		subscribers: make(map[string]chan Notification),
		buffer:      defaultBuffer,
		log:         log,
	}
}

// Subscribe registers id and returns its feed. Subscribing twice with the
// same id replaces (and closes) the previous feed.
func (nm *NotificationManager) Subscribe(id string) <-chan Notification {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if old, exists := nm.subscribers[id]; exists {
		close(old)
	}
	ch := make(chan Notification, nm.buffer)
	nm.subscribers[id] = ch
	return ch
}

func (nm *NotificationManager) Unsubscribe(id string) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if ch, exists := nm.subscribers[id]; exists {
		close(ch)
		delete(nm.subscribers, id)
	}
}

// Publish fans n out to every subscriber without blocking. A subscriber
// whose buffer is full misses the notification.
func (nm *NotificationManager) Publish(n Notification) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()

	for id, ch := range nm.subscribers {
		select {
		case ch <- n:
		default:
			nm.log.Warn("notification dropped, subscriber full",
				zap.String("subscriber", id), zap.String("kind", string(n.Kind)))
		}
	}
}

// Close unsubscribes everyone.
func (nm *NotificationManager) Close() {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	for id, ch := range nm.subscribers {
		close(ch)
		delete(nm.subscribers, id)
	}
}
