package orderbook

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/api"
	"github.com/skatteetaten/orderbook/pkg/config"
	"github.com/skatteetaten/orderbook/pkg/feed"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
	"github.com/skatteetaten/orderbook/pkg/publish"
	"github.com/skatteetaten/orderbook/pkg/report"
	"github.com/skatteetaten/orderbook/pkg/util"
)

type RunConfiguration struct {
	Config *config.Config
	// Out receives the report when no output file is configured
	Out       io.Writer
	Publisher publish.Publisher
}

// RunReplay applies the configured feed to a fresh book and writes a depth report
func RunReplay(ctx context.Context, configuration RunConfiguration) (*report.Report, error) {
	c := configuration.Config
	startTimer := time.Now()
	logrus.Debugf("Config %+v", c)

	book := orderbook.New()
	defer book.Close()

	info, stats, err := loadFeed(ctx, book, c)
	if err != nil {
		return nil, err
	}

	r, err := report.New(book, c.Report.Depth, info, stats)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build report")
	}
	render, err := r.Render(c.Report.Format)
	if err != nil {
		return nil, err
	}
	if c.Report.Output != "" {
		if err := util.WriteFile(c.Report.Output, render); err != nil {
			return nil, err
		}
		logrus.Infof("Report written to %s", c.Report.Output)
	} else if err := render(configuration.Out); err != nil {
		return nil, errors.Wrap(err, "Failed to write report")
	}

	publisher := configuration.Publisher
	if publisher == nil {
		publisher = publish.NewClient(c.Report.PublishURL)
	}
	if publisher.Enabled() {
		if err := publisher.Publish(ctx, r); err != nil {
			logrus.Warnf("Unable to publish report %s: %s", r.RunID, err)
		}
	}

	logrus.Infof("Timer stage=RunReplay feed=%s orders=%d timetaken=%.3fs", info.Path, book.Len(), time.Since(startTimer).Seconds())
	return r, nil
}

// RunServe serves a book over HTTP until ctx is done. A configured feed is replayed first.
func RunServe(ctx context.Context, configuration RunConfiguration) error {
	c := configuration.Config
	book := orderbook.New()
	defer book.Close()

	if c.Feed.Path != "" {
		startTimer := time.Now()
		_, stats, err := loadFeed(ctx, book, c)
		if err != nil {
			return err
		}
		logrus.Infof("Timer stage=Preload feed=%s events=%d timetaken=%.3fs", c.Feed.Path, stats.Total(), time.Since(startTimer).Seconds())
	}

	server := api.NewServer(book)
	return server.ListenAndServe(ctx, c.Listen)
}

func loadFeed(ctx context.Context, book *orderbook.Book, c *config.Config) (report.FeedInfo, feed.Stats, error) {
	info := report.FeedInfo{Path: c.Feed.Path}
	format, err := c.FeedFormat()
	if err != nil {
		return info, feed.Stats{}, err
	}
	info.Format = string(format)

	if info.Digest, err = util.DigestFile(c.Feed.Path); err != nil {
		return info, feed.Stats{}, err
	}
	f, err := os.Open(c.Feed.Path)
	if err != nil {
		return info, feed.Stats{}, errors.Wrapf(err, "Failed to open feed %s", c.Feed.Path)
	}
	defer f.Close()

	reader, err := feed.NewReader(f, format)
	if err != nil {
		return info, feed.Stats{}, errors.Wrapf(err, "Failed to read feed %s", c.Feed.Path)
	}
	info.Version = reader.Version()

	stats, err := feed.Apply(ctx, book, reader, c.FeedMode())
	if err != nil {
		return info, stats, errors.Wrapf(err, "Failed to replay %s", c.Feed.Path)
	}
	logrus.Infof("Replayed %d events from %s (added=%d removed=%d modified=%d skipped=%d)",
		stats.Total(), c.Feed.Path, stats.Added, stats.Removed, stats.Modified, stats.Skipped)

	settleCtx, cancel := context.WithTimeout(ctx, c.SettleTimeout)
	defer cancel()
	if err := book.Settle(settleCtx); err != nil {
		return info, stats, errors.Wrapf(err, "Book did not settle within %s", c.SettleTimeout)
	}
	return info, stats, nil
}
