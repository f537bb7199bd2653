package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeed_KeepsMostRecent(t *testing.T) {
	feed := NewFeed(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		feed.Notify(context.Background(), Success(msg))
	}

	all := feed.Since(0)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Message)
	assert.Equal(t, uint64(4), all[2].ID)
	assert.False(t, all[2].At.IsZero())

	newer := feed.Since(3)
	require.Len(t, newer, 1)
	assert.Equal(t, "d", newer[0].Message)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewFeed(5), NewFeed(5)
	Multi{a, b}.Notify(context.Background(), Failure("Error al añadir la pieza"))

	assert.Len(t, a.Since(0), 1)
	assert.Equal(t, LevelError, b.Since(0)[0].Level)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendTextMessage(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phone+"|"+message)
	return f.err
}

type fakePrefs map[string]string

func (p fakePrefs) Get(_ context.Context, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestWhatsApp_RespectsPreference(t *testing.T) {
	sender := &fakeSender{}
	prefs := fakePrefs{PreferenceKey: "false"}
	w := NewWhatsApp(sender, prefs, "5491100000000", zap.NewNop())

	w.Notify(context.Background(), Success("Pedido añadido correctamente"))
	prefs[PreferenceKey] = "true"
	w.Notify(context.Background(), Info("ignored"))
	w.Notify(context.Background(), Failure("Error al guardar el pedido"))
	w.Close()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "5491100000000|[Artastic] Error al guardar el pedido", sender.sent[0])
}

func TestWhatsApp_SendErrorsAreSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("timeout")}
	w := NewWhatsApp(sender, fakePrefs{PreferenceKey: "true"}, "123", zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.Notify(context.Background(), Success("ok"))
		w.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not shut down")
	}
	assert.Len(t, sender.sent, 1)
}

func TestWhatsApp_NotifyAfterCloseIsDropped(t *testing.T) {
	sender := &fakeSender{}
	w := NewWhatsApp(sender, fakePrefs{PreferenceKey: "true"}, "123", zap.NewNop())
	w.Close()

	assert.NotPanics(t, func() {
		w.Notify(context.Background(), Failure("Error al eliminar el pedido"))
	})
	assert.NotPanics(t, w.Close)
	assert.Empty(t, sender.sent)
}

func TestWhatsApp_ConcurrentNotifyAndClose(t *testing.T) {
	sender := &fakeSender{}
	w := NewWhatsApp(sender, fakePrefs{PreferenceKey: "true"}, "123", zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				w.Notify(context.Background(), Success("Pieza añadida correctamente"))
			}
		}()
	}
	w.Close()
	wg.Wait()
}
