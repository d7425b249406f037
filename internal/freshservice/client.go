// Package freshservice implements the two-phase Freshservice ticket fetch:
// the paginated status-filter query and the per-ticket detail-with-stats call.
package freshservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"beacon/pkg/logger"
)

// ErrTicketGone marks a ticket deleted between the list and detail fetches.
var ErrTicketGone = errors.New("ticket no longer exists")

// Config tunes the client. Zero values fall back to production defaults.
type Config struct {
	Domain    string // e.g. "example.freshservice.com"
	APIKey    string
	StatusIDs []int

	PerPage          int
	MaxPages         int
	MaxRetries       int
	RetryDelay       time.Duration // transient list errors and the 429 fallback
	DetailRetryDelay time.Duration
	DetailSpacing    time.Duration // pause between individual detail fetches

	ListTimeout   time.Duration
	DetailTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if len(c.StatusIDs) == 0 {
		c.StatusIDs = []int{2, 3, 8, 9, 10, 13, 19, 23, 26, 27}
	}
	if c.PerPage == 0 {
		c.PerPage = 30
	}
	if c.MaxPages == 0 {
		c.MaxPages = 50
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.DetailRetryDelay == 0 {
		c.DetailRetryDelay = 10 * time.Second
	}
	if c.DetailSpacing == 0 {
		c.DetailSpacing = 750 * time.Millisecond
	}
	if c.ListTimeout == 0 {
		c.ListTimeout = 30 * time.Second
	}
	if c.DetailTimeout == 0 {
		c.DetailTimeout = 20 * time.Second
	}
}

// Client talks to the Freshservice v2 REST API with Basic auth.
type Client struct {
	cfg     Config
	baseURL string
	auth    string

	listHTTP   *http.Client
	detailHTTP *http.Client
	log        *logger.Logger

	// RetriesConsumed counts retry sleeps across the lifetime of the client.
	RetriesConsumed int

	sleep func(time.Duration) // test seam
}

// NewClient builds a Client for the given domain and API key.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Domain == "" {
		return nil, errors.New("freshservice: domain is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("freshservice: API key is required")
	}
	cfg.applyDefaults()

	base := cfg.Domain
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}

	return &Client{
		cfg:        cfg,
		baseURL:    base,
		auth:       "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.APIKey+":X")),
		listHTTP:   &http.Client{Timeout: cfg.ListTimeout},
		detailHTTP: &http.Client{Timeout: cfg.DetailTimeout},
		log:        log,
		sleep:      time.Sleep,
	}, nil
}

// statusQuery builds the filter query value: "(status:2 OR status:3 OR ...)",
// wrapped in literal double quotes as the filter endpoint requires.
func (c *Client) statusQuery() string {
	parts := make([]string, 0, len(c.cfg.StatusIDs))
	for _, id := range c.cfg.StatusIDs {
		parts = append(parts, "status:"+strconv.Itoa(id))
	}
	return `"(` + strings.Join(parts, " OR ") + `)"`
}

// listEntry is the minimal shape needed from the filter endpoint; detail
// fetches supply everything else.
type listEntry struct {
	ID int64 `json:"id"`
}

// ListActiveTickets walks the filter endpoint page by page, deduplicating ids
// within the run. A page smaller than per_page ends the walk; MaxPages bounds
// a runaway loop. Returns the ordered unique id list.
func (c *Client) ListActiveTickets(ctx context.Context) ([]int64, error) {
	endpoint := c.baseURL + "/api/v2/tickets/filter"
	query := c.statusQuery()

	seen := make(map[int64]bool)
	var ids []int64

	page := 1
	for page <= c.cfg.MaxPages {
		params := url.Values{}
		params.Set("query", query)
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(c.cfg.PerPage))

		body, err := c.getWithRetry(ctx, c.listHTTP, endpoint+"?"+params.Encode(), c.cfg.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("list page %d: %w", page, err)
		}

		var resp struct {
			Tickets []listEntry `json:"tickets"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("list page %d: decoding response: %w", page, err)
		}

		if len(resp.Tickets) == 0 {
			return ids, nil
		}

		newOnPage := 0
		for _, entry := range resp.Tickets {
			if entry.ID == 0 || seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			ids = append(ids, entry.ID)
			newOnPage++
		}
		c.log.Debug("list page fetched", map[string]interface{}{
			"page": page, "items": len(resp.Tickets), "new": newOnPage, "total": len(ids),
		})

		if len(resp.Tickets) < c.cfg.PerPage {
			return ids, nil
		}
		page++
	}

	c.log.Warn("list fetch hit the page cap, some tickets may be missed", map[string]interface{}{
		"max_pages": c.cfg.MaxPages, "per_page": c.cfg.PerPage,
	})
	return ids, nil
}

// TicketWithStats fetches one ticket's full detail object with include=stats.
// A 404 returns ErrTicketGone so callers can skip the ticket without retrying.
func (c *Client) TicketWithStats(ctx context.Context, id int64) (*Ticket, error) {
	endpoint := fmt.Sprintf("%s/api/v2/tickets/%d?include=stats", c.baseURL, id)

	body, err := c.getWithRetry(ctx, c.detailHTTP, endpoint, c.cfg.DetailRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("ticket %d detail: %w", id, err)
	}

	var envelope struct {
		Ticket json.RawMessage `json:"ticket"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("ticket %d detail: decoding response: %w", id, err)
	}
	if envelope.Ticket == nil {
		return nil, fmt.Errorf("ticket %d detail: response missing 'ticket' key", id)
	}

	t, err := ParseTicket(envelope.Ticket)
	if err != nil {
		return nil, fmt.Errorf("ticket %d detail: %w", id, err)
	}
	return t, nil
}

// DetailSpacing is the configured pause between detail fetches.
func (c *Client) DetailSpacing() time.Duration { return c.cfg.DetailSpacing }

// getWithRetry performs a GET with the retry policy: 429 waits Retry-After
// (falling back to retryDelay) and retries; transient transport errors wait
// retryDelay and retry; both are bounded by MaxRetries. 404 maps to
// ErrTicketGone and is never retried.
func (c *Client) getWithRetry(ctx context.Context, hc *http.Client, rawURL string, retryDelay time.Duration) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.RetriesConsumed++
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", c.auth)

		resp, err := hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Warn("request failed, will retry", map[string]interface{}{
				"url": rawURL, "attempt": attempt + 1, "error": err.Error(),
			})
			if attempt < c.cfg.MaxRetries {
				c.sleep(retryDelay)
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header, retryDelay)
			lastErr = fmt.Errorf("rate limited (429)")
			c.log.Warn("rate limited, backing off", map[string]interface{}{
				"url": rawURL, "wait": wait.String(), "attempt": attempt + 1,
			})
			if attempt < c.cfg.MaxRetries {
				c.sleep(wait)
			}
			continue

		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrTicketGone

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("upstream error: status %d", resp.StatusCode)
			if attempt < c.cfg.MaxRetries {
				c.sleep(retryDelay)
			}
			continue

		case resp.StatusCode != http.StatusOK:
			// 4xx other than 429/404 will not improve on retry
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
		}

		if readErr != nil {
			lastErr = readErr
			if attempt < c.cfg.MaxRetries {
				c.sleep(retryDelay)
			}
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("giving up after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
