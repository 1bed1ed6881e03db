package order

import (
	"cmp"
	"time"
)

// Timed is an order stamped with its time of entry into a book.
// Seq is assigned by the book and breaks ties between equal timestamps.
type Timed struct {
	Order
	Time time.Time
	Seq  uint64
}

// NewTimed stamps an order
func NewTimed(o Order, at time.Time, seq uint64) Timed {
	return Timed{Order: o, Time: at, Seq: seq}
}

// Resized returns a new entry with a new size, time and sequence.
// The old entry's time priority is not kept.
func (t Timed) Resized(size int64, at time.Time, seq uint64) Timed {
	return NewTimed(t.Order.WithSize(size), at, seq)
}

// Compare orders two entries by price priority for the side of t, then by time.
// Bids with higher price come first, offers with lower price come first.
func (t Timed) Compare(o Timed) int {
	c := cmp.Compare(t.Price, o.Price)
	if t.Side == Bid {
		c = -c
	}
	if c != 0 {
		return c
	}
	if t.Time.Before(o.Time) {
		return -1
	}
	if t.Time.After(o.Time) {
		return 1
	}
	switch {
	case t.Seq < o.Seq:
		return -1
	case t.Seq > o.Seq:
		return 1
	}
	return 0
}

// Less reports whether a sorts before b
func Less(a, b Timed) bool {
	return a.Compare(b) < 0
}
