package orderbook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/skatteetaten/orderbook/pkg/config"
	"github.com/skatteetaten/orderbook/pkg/feed"
	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
	"github.com/skatteetaten/orderbook/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replayConfig(feedPath string) *config.Config {
	c := config.Default()
	c.Feed.Path = feedPath
	c.Report.Depth = 3
	c.SettleTimeout = 5 * time.Second
	return c
}

func TestRunReplayCSV(t *testing.T) {
	out := &bytes.Buffer{}
	r, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig("../../testdata/feed.csv"), Out: out})
	require.NoError(t, err)

	assert.Equal(t, feed.Stats{Added: 6, Removed: 1, Modified: 1}, r.Stats)
	assert.Equal(t, "1.0", r.Feed.Version)
	assert.Equal(t, "csv", r.Feed.Format)
	digest, err := util.DigestFile("../../testdata/feed.csv")
	require.NoError(t, err)
	assert.Equal(t, digest, r.Feed.Digest)

	assert.Equal(t, []order.Order{
		{ID: 2, Price: 200.5, Side: order.Bid, Size: 14},
		{ID: 1, Price: 100.5, Side: order.Bid, Size: 11},
	}, r.Bids.Orders)
	assert.Equal(t, []orderbook.Level{
		{Price: 201, TotalSize: 12, Orders: 2},
		{Price: 203.5, TotalSize: 1, Orders: 1},
	}, r.Offers.Levels)

	assert.Contains(t, out.String(), "Events added=6 removed=1 modified=1 skipped=0")
}

func TestRunReplayJSONLMatchesCSV(t *testing.T) {
	fromCSV, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig("../../testdata/feed.csv"), Out: &bytes.Buffer{}})
	require.NoError(t, err)
	fromJSONL, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig("../../testdata/feed.jsonl"), Out: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Bids, fromJSONL.Bids)
	assert.Equal(t, fromCSV.Offers, fromJSONL.Offers)
	assert.Equal(t, "1.1", fromJSONL.Feed.Version)
}

func TestRunReplayWritesOutputFile(t *testing.T) {
	c := replayConfig("../../testdata/feed.csv")
	c.Report.Format = "json"
	c.Report.Output = filepath.Join(t.TempDir(), "reports", "depth.json")
	out := &bytes.Buffer{}

	r, err := RunReplay(context.Background(), RunConfiguration{Config: c, Out: out})
	require.NoError(t, err)

	assert.Empty(t, out.String())
	data, err := os.ReadFile(c.Report.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), r.RunID.String())
}

func TestRunReplayStrictFailsOnBadFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("A,1,10,B,1\nR,2\n"), 0644))

	_, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig(path), Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	c := replayConfig(path)
	c.Feed.Lenient = true
	r, err := RunReplay(context.Background(), RunConfiguration{Config: c, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, feed.Stats{Added: 1, Skipped: 1}, r.Stats)
}

func TestRunReplayRejectsNonFinitePrices(t *testing.T) {
	var rows strings.Builder
	for i := 1; i <= 60; i++ {
		price := strconv.FormatFloat(float64(i%13)+0.5, 'f', -1, 64)
		if i%7 == 0 {
			price = "NaN"
		}
		fmt.Fprintf(&rows, "A,%d,%s,B,1\n", i, price)
	}
	path := filepath.Join(t.TempDir(), "nan.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows.String()), 0644))

	_, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig(path), Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 7")

	c := replayConfig(path)
	c.Feed.Lenient = true
	c.Report.Depth = 60
	c.Report.Format = "json"
	out := &bytes.Buffer{}
	r, err := RunReplay(context.Background(), RunConfiguration{Config: c, Out: out})
	require.NoError(t, err)

	assert.Equal(t, feed.Stats{Added: 52, Skipped: 8}, r.Stats)
	require.Len(t, r.Bids.Orders, 52)
	for i := 1; i < len(r.Bids.Orders); i++ {
		assert.GreaterOrEqual(t, r.Bids.Orders[i-1].Price, r.Bids.Orders[i].Price)
	}
	assert.Contains(t, out.String(), r.RunID.String())
}

func TestRunReplayMissingFeed(t *testing.T) {
	_, err := RunReplay(context.Background(), RunConfiguration{Config: replayConfig("../../testdata/missing.csv"), Out: &bytes.Buffer{}})
	assert.Error(t, err)
}

type recordingPublisher struct {
	published []interface{}
}

func (p *recordingPublisher) Enabled() bool { return true }

func (p *recordingPublisher) Publish(_ context.Context, data interface{}) error {
	p.published = append(p.published, data)
	return nil
}

func TestRunReplayPublishesReport(t *testing.T) {
	p := &recordingPublisher{}
	r, err := RunReplay(context.Background(), RunConfiguration{
		Config:    replayConfig("../../testdata/feed.csv"),
		Out:       &bytes.Buffer{},
		Publisher: p,
	})
	require.NoError(t, err)
	require.Len(t, p.published, 1)
	assert.Equal(t, r, p.published[0])
}
