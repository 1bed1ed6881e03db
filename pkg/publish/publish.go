package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const reportPath = "/api/v1/reports"

// Publisher sends replay reports to a collector
type Publisher interface {
	Publish(ctx context.Context, data interface{}) error
	Enabled() bool
}

// NewClient creates a publisher. An empty URL gives a disabled publisher.
func NewClient(collectorURL string) Publisher {
	return &client{
		url:     collectorURL,
		enabled: collectorURL != "",
		http:    &http.Client{},
		timeout: 5 * time.Second,
	}
}

type client struct {
	url     string
	enabled bool
	http    *http.Client
	timeout time.Duration
}

func (c *client) Enabled() bool {
	return c.enabled
}

// Publish posts data as JSON. It is a no-op when the publisher is disabled.
func (c *client) Publish(ctx context.Context, data interface{}) error {
	if !c.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "Unable to marshal report")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+reportPath, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "Unable to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logrus.Warnf("Request failed: %s", err)
		return errors.Wrap(err, "Request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errorBody, _ := httputil.DumpResponse(resp, true)
		logrus.Warnf("Request failed, error from collector: %s", errorBody)
		return errors.Errorf("Request failed %d", resp.StatusCode)
	}
	logrus.Debugf("Published report to %s", c.url)
	return nil
}
