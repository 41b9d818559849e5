package owid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
)

// ErrUnexpectedStatus is returned when the dataset host answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client downloads the OWID COVID-19 CSV over HTTPS.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

// NewClient creates a dataset client. timeout bounds the whole download,
// including reading the body.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:    url,
		logger: logger,
	}
}

// Fetch downloads and decodes the remote dataset.
func (c *Client) Fetch(ctx context.Context) ([]domain.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, c.url, body)
	}

	rows, err := domain.DecodeCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode remote dataset: %w", err)
	}

	c.logger.Debug("remote dataset downloaded",
		"url", c.url,
		"rows", len(rows),
		"duration", time.Since(start),
	)
	return rows, nil
}
