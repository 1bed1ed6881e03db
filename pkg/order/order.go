package order

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Side of the book an order rests on
type Side byte

const (
	Bid   Side = 'B'
	Offer Side = 'O'
)

// ErrInvalidPrice is returned for prices that are NaN or infinite
var ErrInvalidPrice = errors.New("price must be a finite number")

// CheckPrice rejects prices that cannot be ordered or encoded
func CheckPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return errors.Wrapf(ErrInvalidPrice, "got %v", price)
	}
	return nil
}

// ParseSide validates a wire side character
func ParseSide(c byte) (Side, error) {
	if c != byte(Bid) && c != byte(Offer) {
		return 0, errors.Errorf("side can be only 'B' or 'O', but got: %c", c)
	}
	return Side(c), nil
}

// ParseSideString accepts "B", "O", "bid" or "offer"
func ParseSideString(s string) (Side, error) {
	switch s {
	case "bid", "Bid", "BID":
		return Bid, nil
	case "offer", "Offer", "OFFER":
		return Offer, nil
	}
	if len(s) != 1 {
		return 0, errors.Errorf("side can be only 'B' or 'O', but got: %s", s)
	}
	return ParseSide(s[0])
}

// Char returns the wire representation
func (s Side) Char() byte {
	return byte(s)
}

func (s Side) String() string {
	switch s {
	case Bid:
		return "Bid"
	case Offer:
		return "Offer"
	}
	return fmt.Sprintf("Side(%q)", byte(s))
}

// Order is a resting limit order. Two orders are equal when all fields are equal.
type Order struct {
	ID    int64   `json:"id" yaml:"id"`
	Price float64 `json:"price" yaml:"price"`
	Side  Side    `json:"side" yaml:"side"`
	Size  int64   `json:"size" yaml:"size"`
}

// WithSize returns a copy of the order with a new size
func (o Order) WithSize(size int64) Order {
	o.Size = size
	return o
}

func (o Order) String() string {
	return fmt.Sprintf("Order{id=%d, price=%v, side=%c, size=%d}", o.ID, o.Price, o.Side, o.Size)
}

// MarshalText encodes the side as its wire character
func (s Side) MarshalText() ([]byte, error) {
	if _, err := ParseSide(byte(s)); err != nil {
		return nil, err
	}
	return []byte{byte(s)}, nil
}

// UnmarshalText accepts the same spellings as ParseSideString
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSideString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
