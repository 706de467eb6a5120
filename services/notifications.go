// services/notifications.go
package services

import (
	"log"
	"runtime/debug"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the only user-visible error channel.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier delivers a notification to one user's live streams.
type Notifier interface {
	Publish(userID string, n Notification)
}

const subscriberBuffer = 16

// NotificationHub fans notifications out to SSE subscribers, per user.
// A subscriber whose buffer is full misses the notification.
type NotificationHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Notification]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{subs: make(map[string]map[chan Notification]struct{})}
}

// Subscribe returns a receive channel and a cancel func that must be called once.
func (h *NotificationHub) Subscribe(userID string) (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *NotificationHub) Publish(userID string, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- n:
		default:
			notificationsDropped.Inc()
		}
	}
}

// Subscribers counts open streams for a user.
func (h *NotificationHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// goBestEffort runs fn in its own goroutine. A panic or failure inside fn is
// logged and never reaches the caller.
func goBestEffort(name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("⚠️  [best-effort] %s panicked: %v\n%s", name, r, debug.Stack())
			}
		}()
		if err := fn(); err != nil {
			log.Printf("⚠️  [best-effort] %s failed: %v", name, err)
		}
	}()
}
