// Package catalog fetches MARC exports from a VuFind discovery catalog.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
)

// ErrRecordNotFound is returned when the catalog has no record for an id
var ErrRecordNotFound = errors.New("catalog record not found")

// Client represents a VuFind catalog client
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new catalog client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExportURL is the VuFind MARC export endpoint for a record
func (c *Client) ExportURL(recordID string) string {
	return fmt.Sprintf("%s/Record/%s/Export?style=MARC", c.BaseURL, url.PathEscape(recordID))
}

// FetchRecord fetches and decodes the binary MARC export of a record
func (c *Client) FetchRecord(ctx context.Context, recordID string) (*marc.Record, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record id is required")
	}

	marcURL := c.ExportURL(recordID)
	slog.Debug("Fetching MARC export", "url", marcURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, marcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MARC: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("MARC fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	marcData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read MARC data: %w", err)
	}

	record, err := marc.NewReader(bytes.NewReader(marcData)).Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty export for %s", marc.ErrMalformedRecord, recordID)
		}
		return nil, fmt.Errorf("failed to decode MARC export for %s: %w", recordID, err)
	}

	return record, nil
}

// FetchRecords fetches each id in turn. Records that cannot be fetched are
// logged and skipped; the error lists how many failed.
func (c *Client) FetchRecords(ctx context.Context, recordIDs []string) ([]*marc.Record, error) {
	records := make([]*marc.Record, 0, len(recordIDs))
	var failed int

	for _, id := range recordIDs {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		record, err := c.FetchRecord(ctx, id)
		if err != nil {
			slog.Error("Failed to fetch record", "id", id, "err", err)
			failed++
			continue
		}
		records = append(records, record)
	}

	if failed > 0 {
		return records, fmt.Errorf("failed to fetch %d of %d records", failed, len(recordIDs))
	}
	return records, nil
}
