package notify

import (
	"context"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a short user-facing message about the outcome of an operation.
type Notification struct {
	ID      uint64    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(message string) Notification {
	return Notification{Level: LevelSuccess, Message: message}
}

func Failure(message string) Notification {
	return Notification{Level: LevelError, Message: message}
}

func Info(message string) Notification {
	return Notification{Level: LevelInfo, Message: message}
}

// Multi delivers every notification to each notifier in turn.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Feed keeps the most recent notifications in memory for clients to poll.
type Feed struct {
	mu    sync.RWMutex
	items []Notification
	size  int
	next  uint64
	now   func() time.Time
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size, now: time.Now}
}

func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	n.ID = f.next
	if n.At.IsZero() {
		n.At = f.now()
	}
	f.items = append(f.items, n)
	if len(f.items) > f.size {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.size:]...)
	}
}

// Since returns the notifications with an ID greater than after, oldest first.
func (f *Feed) Since(after uint64) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Notification, 0, len(f.items))
	for _, n := range f.items {
		if n.ID > after {
			out = append(out, n)
		}
	}
	return out
}
