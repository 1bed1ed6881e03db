package report

import (
	"encoding/json"
	"io"
	"strconv"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skatteetaten/orderbook/pkg/feed"
	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
	"github.com/skatteetaten/orderbook/pkg/util"
	"gopkg.in/yaml.v3"
)

// Source is the read side of a book
type Source interface {
	Depth(side order.Side, n int) ([]orderbook.Level, error)
	AllOf(side order.Side) ([]order.Order, error)
}

type FeedInfo struct {
	Path    string `json:"path" yaml:"path"`
	Format  string `json:"format" yaml:"format"`
	Version string `json:"version" yaml:"version"`
	Digest  string `json:"digest" yaml:"digest"`
}

type SideReport struct {
	Side   string            `json:"side" yaml:"side"`
	Levels []orderbook.Level `json:"levels" yaml:"levels"`
	Orders []order.Order     `json:"orders" yaml:"orders"`
}

// Report is the state of a book after a replay
type Report struct {
	RunID       uuid.UUID  `json:"runId" yaml:"runId"`
	GeneratedAt time.Time  `json:"generatedAt" yaml:"generatedAt"`
	Feed        FeedInfo   `json:"feed" yaml:"feed"`
	Stats       feed.Stats `json:"stats" yaml:"stats"`
	Bids        SideReport `json:"bids" yaml:"bids"`
	Offers      SideReport `json:"offers" yaml:"offers"`
}

// New reads both sides of a settled book
func New(book Source, depth int, info FeedInfo, stats feed.Stats) (*Report, error) {
	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "UUID generation failed")
	}
	r := &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Feed:        info,
		Stats:       stats,
	}
	if r.Bids, err = sideReport(book, order.Bid, depth); err != nil {
		return nil, err
	}
	if r.Offers, err = sideReport(book, order.Offer, depth); err != nil {
		return nil, err
	}
	return r, nil
}

func sideReport(book Source, side order.Side, depth int) (SideReport, error) {
	levels, err := book.Depth(side, depth)
	if err != nil {
		return SideReport{}, errors.Wrapf(err, "Failed to read %s depth", side)
	}
	orders, err := book.AllOf(side)
	if err != nil {
		return SideReport{}, errors.Wrapf(err, "Failed to read %s orders", side)
	}
	return SideReport{Side: side.String(), Levels: levels, Orders: orders}, nil
}

// Sides returns bids then offers
func (r *Report) Sides() []SideReport {
	return []SideReport{r.Bids, r.Offers}
}

// Render returns a writer for the report in text, json or yaml
func (r *Report) Render(format string) (util.WriterFunc, error) {
	switch format {
	case "text", "":
		return util.NewTemplateWriter(r, "report", textTemplate, funcs), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "Failed to encode report")
		}
		return util.NewByteWriter(append(data, '\n')), nil
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to encode report")
		}
		return util.NewByteWriter(data), nil
	}
	return nil, errors.Errorf("unknown report format %q", format)
}

// Write renders the report to w
func (r *Report) Write(w io.Writer, format string) error {
	render, err := r.Render(format)
	if err != nil {
		return err
	}
	return render(w)
}

var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"price": func(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) },
}

const textTemplate = `Run {{.RunID}} at {{.GeneratedAt.Format "2006-01-02T15:04:05Z07:00"}}
Feed {{.Feed.Path}} ({{.Feed.Format}} v{{.Feed.Version}}) {{.Feed.Digest}}
Events added={{.Stats.Added}} removed={{.Stats.Removed}} modified={{.Stats.Modified}} skipped={{.Stats.Skipped}}
{{range .Sides}}
{{.Side}} ({{len .Orders}} orders)
{{printf "%5s %14s %12s %6s" "LEVEL" "PRICE" "SIZE" "ORDERS"}}
{{range $i, $l := .Levels}}{{printf "%5d %14s %12d %6d" (inc $i) (price $l.Price) $l.TotalSize $l.Orders}}
{{else}}{{printf "%5s" "-"}}
{{end}}{{end}}`
