package orderbook

import (
	"github.com/skatteetaten/orderbook/pkg/order"
)

// Level is the aggregate of all orders resting at one price
type Level struct {
	Price     float64 `json:"price" yaml:"price"`
	TotalSize int64   `json:"totalSize" yaml:"totalSize"`
	Orders    int     `json:"orders" yaml:"orders"`
}

// Depth aggregates the latest snapshot of a side into at most n price levels,
// best price first
func (b *Book) Depth(side order.Side, n int) ([]Level, error) {
	if err := validateLevel(n); err != nil {
		return nil, err
	}
	s, err := b.sorterForChecked(side)
	if err != nil {
		return nil, err
	}
	levels := make([]Level, 0, n)
	for _, entry := range s.snapshot() {
		last := len(levels) - 1
		if last >= 0 && levels[last].Price == entry.Price {
			levels[last].TotalSize += entry.Size
			levels[last].Orders++
			continue
		}
		if len(levels) == n {
			break
		}
		levels = append(levels, Level{Price: entry.Price, TotalSize: entry.Size, Orders: 1})
	}
	return levels, nil
}
