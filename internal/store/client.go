package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"seedpipe/internal/config"
	"seedpipe/internal/logging"
	"seedpipe/internal/record"
	"seedpipe/internal/services"
)

// HTTPDoer describes the HTTP client used by the store gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a PostgREST-style record store.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	retries  int
	client   HTTPDoer
	logger   *slog.Logger
}

// New constructs a gateway from the store configuration.
func New(cfg config.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		retries:  cfg.FetchRetries,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:   logger.With(slog.String(logging.FieldComponent, "store")),
	}
}

// NewWithDoer constructs a gateway with an injected HTTP client for tests.
func NewWithDoer(cfg config.Store, doer HTTPDoer, logger *slog.Logger) *Client {
	c := New(cfg, logger)
	c.client = doer
	return c
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
}

// FetchAll retrieves every row of the table, paginating at the configured
// page size until a page comes back short or empty. Any page failure aborts
// the whole fetch: resolving duplicates against a truncated record set could
// elect the wrong survivor.
func (c *Client) FetchAll(ctx context.Context, table string) ([]record.Record, error) {
	var all []record.Record
	offset := 0

	for {
		page, err := c.fetchPage(ctx, table, offset)
		if err != nil {
			return nil, services.Wrap(services.ErrFetch, "store", "fetch_all",
				fmt.Sprintf("table %s offset %d", table, offset), err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		c.logger.Info("fetched page",
			slog.String(logging.FieldTable, table),
			slog.Int("records", len(page)),
			slog.Int("total", len(all)))
		if len(page) < c.pageSize {
			break
		}
		offset += c.pageSize
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, table string, offset int) ([]record.Record, error) {
	var page []record.Record

	operation := func() error {
		query := url.Values{}
		query.Set("select", "*")
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(c.pageSize))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(table)+"?"+query.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.decorate(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := httpError(resp)
			if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}

		page = page[:0]
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return backoff.Permanent(fmt.Errorf("decode page: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteByIDs removes the given rows in one request using an id=in.(...)
// filter. Callers slice the full delete set into batches; this issues exactly
// one call per invocation so failures map one-to-one onto batches.
func (c *Client) DeleteByIDs(ctx context.Context, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	query := url.Values{}
	query.Set("id", "in.("+strings.Join(parts, ",")+")")

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.tableURL(table)+"?"+query.Encode(), nil)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "delete", "build request", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "delete", fmt.Sprintf("%d ids", len(ids)), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return services.Wrap(services.ErrStore, "store", "delete", fmt.Sprintf("%d ids", len(ids)), httpError(resp))
	}
	return nil
}

// UpdateByID patches a single row. The mirror command uses this to write
// mirrored thumbnail URLs back onto records.
func (c *Client) UpdateByID(ctx context.Context, table string, id int64, patch map[string]any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "update", "marshal patch", err)
	}

	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.tableURL(table)+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "update", "build request", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "update", fmt.Sprintf("id %d", id), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return services.Wrap(services.ErrStore, "store", "update", fmt.Sprintf("id %d", id), httpError(resp))
	}
	return nil
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("store returned %d", resp.StatusCode)
	}
	return fmt.Errorf("store returned %d: %s", resp.StatusCode, detail)
}
