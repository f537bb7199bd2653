package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PreferenceKey gates owner messages. Its value is "true" or "false".
const PreferenceKey = "notificationsEnabled"

type Sender interface {
	SendTextMessage(ctx context.Context, phone, message string) error
}

type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
}

// WhatsApp forwards notifications to the shop owner's phone from a
// background worker so that callers never wait on the messaging API.
type WhatsApp struct {
	sender Sender
	prefs  Preferences
	phone  string
	logger *zap.Logger
	queue  chan Notification
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewWhatsApp(sender Sender, prefs Preferences, phone string, logger *zap.Logger) *WhatsApp {
	w := &WhatsApp{
		sender: sender,
		prefs:  prefs,
		phone:  phone,
		logger: logger,
		queue:  make(chan Notification, 64),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *WhatsApp) Notify(ctx context.Context, n Notification) {
	if w.phone == "" || n.Level == LevelInfo {
		return
	}
	enabled, err := w.prefs.Get(ctx, PreferenceKey)
	if err != nil || enabled != "true" {
		return
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- n:
	default:
		w.logger.Warn("whatsapp queue full, dropping notification", zap.String("message", n.Message))
	}
}

func (w *WhatsApp) run() {
	defer close(w.done)
	for n := range w.queue {
		text := fmt.Sprintf("[Artastic] %s", n.Message)
		if err := w.sender.SendTextMessage(context.Background(), w.phone, text); err != nil {
			w.logger.Error("failed to send whatsapp notification", zap.Error(err))
		}
	}
}

// Close drains the queue and stops the worker. Later notifications are dropped.
func (w *WhatsApp) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}
