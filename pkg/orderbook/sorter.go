package orderbook

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/order"
)

// sorter keeps a sorted snapshot of one side of the book.
// Requests coalesce in a one slot channel, so a burst of mutations costs one pass.
type sorter struct {
	side     order.Side
	source   func(order.Side) []order.Timed
	requests chan struct{}

	requested atomic.Uint64
	published atomic.Uint64
	sorted    atomic.Pointer[[]order.Timed]

	mu      sync.Mutex
	changed chan struct{}

	log *logrus.Entry
}

func newSorter(side order.Side, source func(order.Side) []order.Timed, log *logrus.Entry) *sorter {
	s := &sorter{
		side:     side,
		source:   source,
		requests: make(chan struct{}, 1),
		changed:  make(chan struct{}),
		log:      log.WithFields(logrus.Fields{"component": "sorter", "side": side.String()}),
	}
	empty := []order.Timed{}
	s.sorted.Store(&empty)
	return s
}

func (s *sorter) request() {
	s.requested.Add(1)
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *sorter) run(ctx context.Context) error {
	s.log.Debug("Sorting goroutine started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Sorting goroutine stopped")
			return nil
		case <-s.requests:
			s.pass()
		}
	}
}

func (s *sorter) pass() {
	target := s.requested.Load()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Panic on sorting: %v", r)
		}
		s.published.Store(target)
		s.mu.Lock()
		close(s.changed)
		s.changed = make(chan struct{})
		s.mu.Unlock()
	}()
	snapshot := s.source(s.side)
	slices.SortFunc(snapshot, order.Timed.Compare)
	s.sorted.Store(&snapshot)
	s.log.Debugf("Published %d orders, generation=%d", len(snapshot), target)
}

func (s *sorter) snapshot() []order.Timed {
	return *s.sorted.Load()
}

func (s *sorter) changedChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// settle blocks until a snapshot covering every request made so far is published,
// or until stopped is closed
func (s *sorter) settle(ctx context.Context, stopped <-chan struct{}) error {
	target := s.requested.Load()
	for {
		ch := s.changedChan()
		if s.published.Load() >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopped:
			return ErrClosed
		case <-ch:
		}
	}
}
