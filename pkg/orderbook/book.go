package orderbook

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/order"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateOrder is returned when adding an id that is already live
	ErrDuplicateOrder = errors.New("order already in book")
	// ErrUnknownOrder is returned when removing or modifying an id that is not live
	ErrUnknownOrder = errors.New("no such order")
	// ErrLevelOutOfRange is returned when a level is deeper than the side
	ErrLevelOutOfRange = errors.New("level out of range")
	// ErrClosed is returned by mutations and Settle after Close
	ErrClosed = errors.New("book is closed")
	// ErrInvalidPrice is returned when adding an order with a NaN or infinite price
	ErrInvalidPrice = order.ErrInvalidPrice
)

// Book holds live orders and answers price-time ordered queries per side.
// Queries read snapshots published by background sorters and are eventually
// consistent with mutations. Call Settle for read-your-writes.
type Book struct {
	mu      sync.RWMutex
	entries map[int64]order.Timed
	seq     uint64

	now    func() time.Time
	log    *logrus.Entry
	bids   *sorter
	offers *sorter

	cancel    context.CancelFunc
	group     *errgroup.Group
	closed    atomic.Bool
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Book
type Option func(*Book)

// WithClock sets the time source used to stamp orders
func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		b.now = now
	}
}

// WithLogger sets the logger used by the book and its sorters
func WithLogger(log *logrus.Entry) Option {
	return func(b *Book) {
		b.log = log
	}
}

// New creates a book and starts one sorter per side
func New(opts ...Option) *Book {
	b := &Book{
		entries: make(map[int64]order.Timed),
		now:     time.Now,
		log:     logrus.WithField("component", "orderbook"),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.bids = newSorter(order.Bid, b.collect, b.log)
	b.offers = newSorter(order.Offer, b.collect, b.log)

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.group, ctx = errgroup.WithContext(ctx)
	b.group.Go(func() error { return b.bids.run(ctx) })
	b.group.Go(func() error { return b.offers.run(ctx) })
	return b
}

// Add stamps the order with the current time and puts it in the book
func (b *Book) Add(o order.Order) error {
	if _, err := order.ParseSide(byte(o.Side)); err != nil {
		return err
	}
	if err := order.CheckPrice(o.Price); err != nil {
		return errors.Wrapf(err, "order %d", o.ID)
	}
	if b.closed.Load() {
		return ErrClosed
	}
	b.mu.Lock()
	if _, exists := b.entries[o.ID]; exists {
		b.mu.Unlock()
		return errors.Wrapf(ErrDuplicateOrder, "order %d", o.ID)
	}
	b.seq++
	b.entries[o.ID] = order.NewTimed(o, b.now(), b.seq)
	b.mu.Unlock()

	b.sorterFor(o.Side).request()
	return nil
}

// Remove takes the order out of the book
func (b *Book) Remove(id int64) error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.mu.Lock()
	entry, exists := b.entries[id]
	if !exists {
		b.mu.Unlock()
		return errors.Wrapf(ErrUnknownOrder, "order %d", id)
	}
	delete(b.entries, id)
	b.mu.Unlock()

	b.sorterFor(entry.Side).request()
	return nil
}

// Modify changes the size of an order. The order gets a new entry time and
// loses its time priority at its price.
func (b *Book) Modify(id int64, newSize int64) error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.mu.Lock()
	entry, exists := b.entries[id]
	if !exists {
		b.mu.Unlock()
		return errors.Wrapf(ErrUnknownOrder, "order %d", id)
	}
	b.seq++
	b.entries[id] = entry.Resized(newSize, b.now(), b.seq)
	b.mu.Unlock()

	b.sorterFor(entry.Side).request()
	return nil
}

// Price returns the price of the level-th best order on a side, counting from 1
func (b *Book) Price(side order.Side, level int) (float64, error) {
	sorted, err := b.sortedFor(side, level)
	if err != nil {
		return 0, err
	}
	return sorted[level-1].Price, nil
}

// TotalSize returns the summed size of the best level orders on a side
func (b *Book) TotalSize(side order.Side, level int) (int64, error) {
	sorted, err := b.sortedFor(side, level)
	if err != nil {
		return 0, err
	}
	return sumSize(sorted[:level]), nil
}

// Level returns the price of the level-th best order and the summed size of the
// best level orders, both read from the same snapshot
func (b *Book) Level(side order.Side, level int) (float64, int64, error) {
	sorted, err := b.sortedFor(side, level)
	if err != nil {
		return 0, 0, err
	}
	return sorted[level-1].Price, sumSize(sorted[:level]), nil
}

// AllOf returns the latest sorted snapshot of a side
func (b *Book) AllOf(side order.Side) ([]order.Order, error) {
	s, err := b.sorterForChecked(side)
	if err != nil {
		return nil, err
	}
	sorted := s.snapshot()
	orders := make([]order.Order, 0, len(sorted))
	for _, entry := range sorted {
		orders = append(orders, entry.Order)
	}
	return orders, nil
}

// Len returns the number of live orders
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Settle waits until both sides have published a snapshot covering every
// mutation made before the call. It returns ErrClosed once the book is closed.
func (b *Book) Settle(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	for _, s := range []*sorter{b.bids, b.offers} {
		if err := s.settle(ctx, b.stopped); err != nil {
			if err == ErrClosed {
				return err
			}
			return errors.Wrapf(err, "waiting for %s side to settle", s.side)
		}
	}
	return nil
}

// Changed returns a channel that is closed on the next publish for a side
func (b *Book) Changed(side order.Side) (<-chan struct{}, error) {
	s, err := b.sorterForChecked(side)
	if err != nil {
		return nil, err
	}
	return s.changedChan(), nil
}

// Close stops the sorters. Snapshots stay readable afterwards.
func (b *Book) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.stopped)
		b.cancel()
		b.closeErr = b.group.Wait()
	})
	return b.closeErr
}

func (b *Book) collect(side order.Side) []order.Timed {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]order.Timed, 0, len(b.entries))
	for _, entry := range b.entries {
		if entry.Side == side {
			out = append(out, entry)
		}
	}
	return out
}

func (b *Book) sorterFor(side order.Side) *sorter {
	if side == order.Bid {
		return b.bids
	}
	return b.offers
}

func (b *Book) sorterForChecked(side order.Side) (*sorter, error) {
	if _, err := order.ParseSide(byte(side)); err != nil {
		return nil, err
	}
	return b.sorterFor(side), nil
}

func (b *Book) sortedFor(side order.Side, level int) ([]order.Timed, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	s, err := b.sorterForChecked(side)
	if err != nil {
		return nil, err
	}
	sorted := s.snapshot()
	if level > len(sorted) {
		return nil, errors.Wrapf(ErrLevelOutOfRange, "level %d, %s side has %d orders", level, side, len(sorted))
	}
	return sorted, nil
}

func sumSize(entries []order.Timed) int64 {
	var total int64
	for _, entry := range entries {
		total += entry.Size
	}
	return total
}

func validateLevel(level int) error {
	if level <= 0 {
		return errors.Errorf("level must be >0, but is %d", level)
	}
	return nil
}
