package store

import (
	"context"
	"sync"
	"sync/atomic"

	"artastic/internal/events"
	"artastic/internal/models"
	"artastic/internal/notify"
	"artastic/internal/repository"

	"go.uber.org/zap"
)

type envelope struct {
	action Action
	reply  chan Snapshot
}

// Store owns the cached shop data. A single goroutine applies actions in
// the order they are dispatched; readers only ever see whole snapshots.
type Store struct {
	repos    *repository.Gateway
	notifier notify.Notifier
	events   events.Publisher
	logger   *zap.Logger

	actions chan envelope
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	subs   map[uint64]chan Snapshot
	nextID uint64
}

func New(repos *repository.Gateway, notifier notify.Notifier, publisher events.Publisher, logger *zap.Logger) *Store {
	s := &Store{
		repos:    repos,
		notifier: notifier,
		events:   publisher,
		logger:   logger,
		actions:  make(chan envelope),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		subs:     make(map[uint64]chan Snapshot),
	}
	initial := Snapshot{
		Pieces:    []models.Piece{},
		Filaments: []models.Filament{},
		Clients:   []models.Client{},
		Orders:    []models.Order{},
	}
	s.current.Store(&initial)
	go s.loop(initial)
	return s
}

func (s *Store) loop(state Snapshot) {
	defer close(s.stopped)
	for {
		select {
		case env := <-s.actions:
			state = Reduce(state, env.action)
			snap := state
			s.current.Store(&snap)
			s.broadcast(snap)
			env.reply <- snap
		case <-s.quit:
			return
		}
	}
}

// Dispatch applies a and returns the snapshot it produced.
func (s *Store) Dispatch(a Action) Snapshot {
	env := envelope{action: a, reply: make(chan Snapshot, 1)}
	select {
	case s.actions <- env:
		return <-env.reply
	case <-s.quit:
		return s.Snapshot()
	}
}

func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// Subscribe streams every new snapshot. Slow readers only miss
// intermediate snapshots, never the latest one.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Store) broadcast(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close stops the loop and closes every subscription.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
		<-s.stopped

		s.mu.Lock()
		defer s.mu.Unlock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	})
}

func (s *Store) ClearError() Snapshot {
	return s.Dispatch(ClearError{})
}

type operation struct {
	entity  string
	name    string
	success string
	failure string
}

// execute runs one gateway call bracketed by the loading counter. Failures
// set the error message and notify; the cache is left untouched.
func (s *Store) execute(ctx context.Context, op operation, call func(ctx context.Context) (Action, error)) error {
	s.Dispatch(Begin{})
	defer s.Dispatch(End{})

	result, err := call(ctx)
	if err != nil {
		s.logger.Error("store operation failed",
			zap.String("entity", op.entity),
			zap.String("op", op.name),
			zap.Error(err))
		s.Dispatch(Fail{Message: op.failure})
		s.notifier.Notify(ctx, notify.Failure(op.failure))
		return err
	}

	s.Dispatch(result)
	if op.success != "" {
		s.notifier.Notify(ctx, notify.Success(op.success))
	}
	if op.name != "fetch" {
		s.publish(ctx, op, result)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, op operation, result Action) {
	event := eventFor(op, result)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("topic", event.Topic()), zap.Error(err))
	}
}
