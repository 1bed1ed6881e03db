package feed

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/order"
)

// Applier is the mutating part of a book
type Applier interface {
	Add(o order.Order) error
	Remove(id int64) error
	Modify(id int64, newSize int64) error
}

// Mode decides what a replay does with an event the book rejects
type Mode int

const (
	// Strict stops at the first rejected event
	Strict Mode = iota
	// Lenient logs rejected events and carries on
	Lenient
)

// Apply replays every event from r into book
func Apply(ctx context.Context, book Applier, r Reader, mode Mode) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, errors.Wrap(err, "replay interrupted")
		}
		e, err := r.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			if _, recoverable := errors.Cause(err).(*RecordError); recoverable && mode == Lenient {
				logrus.Warnf("Skipping unreadable feed entry: %v", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}
		if err := applyEvent(book, e); err != nil {
			if mode == Lenient {
				logrus.WithFields(logrus.Fields{"line": e.Line, "action": e.Action, "id": e.ID}).
					Warnf("Skipping event: %v", err)
				stats.Skipped++
				continue
			}
			return stats, errors.Wrapf(err, "line %d: %s order %d", e.Line, e.Action, e.ID)
		}
		switch e.Action {
		case ActionAdd:
			stats.Added++
		case ActionRemove:
			stats.Removed++
		case ActionModify:
			stats.Modified++
		}
	}
}

func applyEvent(book Applier, e Event) error {
	switch e.Action {
	case ActionAdd:
		return book.Add(e.Order())
	case ActionRemove:
		return book.Remove(e.ID)
	case ActionModify:
		return book.Modify(e.ID, e.Size)
	}
	return errors.Errorf("unknown action %q", e.Action)
}
