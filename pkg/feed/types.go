package feed

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/skatteetaten/orderbook/pkg/order"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionModify Action = "modify"
)

// Event is one recorded book mutation
type Event struct {
	Line   int        `json:"-"`
	Action Action     `json:"action"`
	ID     int64      `json:"id"`
	Price  float64    `json:"price,omitempty"`
	Side   order.Side `json:"side,omitempty"`
	Size   int64      `json:"size,omitempty"`
}

// Order returns the order carried by an add event
func (e Event) Order() order.Order {
	return order.Order{ID: e.ID, Price: e.Price, Side: e.Side, Size: e.Size}
}

// Stats counts what a replay did
type Stats struct {
	Added    int `json:"added" yaml:"added"`
	Removed  int `json:"removed" yaml:"removed"`
	Modified int `json:"modified" yaml:"modified"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// Total number of events seen
func (s Stats) Total() int {
	return s.Added + s.Removed + s.Modified + s.Skipped
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatJSONL:
		return f, nil
	}
	return "", errors.Errorf("unknown feed format %q, expected csv or jsonl", name)
}

// FormatFromPath guesses the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", errors.Errorf("cannot tell feed format of %s", path)
}
