package freshservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/pkg/logger"
)

func testClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	log := logger.NewLogger(io.Discard, logger.Config{Service: "test"})
	t.Cleanup(func() { _ = log.Close() })

	c, err := NewClient(Config{
		Domain:     srvURL,
		APIKey:     "secret",
		PerPage:    2,
		MaxPages:   5,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, log)
	require.NoError(t, err)
	return c
}

func TestListActiveTicketsPaginates(t *testing.T) {
	pages := map[string][]map[string]int64{
		"1": {{"id": 101}, {"id": 102}},
		"2": {{"id": 102}, {"id": 103}}, // 102 repeats across pages
		"3": {},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic c2VjcmV0Olg=", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("query"), "status:2")
		page := r.URL.Query().Get("page")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"tickets": pages[page]})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ids, err := c.ListActiveTickets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102, 103}, ids)
}

func TestListStopsOnShortPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// one item with per_page=2 means no further pages exist
		_, _ = w.Write([]byte(`{"tickets":[{"id":7}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ids, err := c.ListActiveTickets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
	assert.Equal(t, 1, calls)
}

func TestRateLimitHonorsRetryAfter(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"tickets":[]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	_, err := c.ListActiveTickets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, c.RetriesConsumed)
	require.Len(t, slept, 1)
	assert.Equal(t, 3*time.Second, slept[0])
}

func TestRetriesExhaustedAbortsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	c.sleep = func(time.Duration) {}

	_, err := c.ListActiveTickets(context.Background())
	assert.Error(t, err)
}

func TestTicketWithStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stats", r.URL.Query().Get("include"))
		fmt.Fprint(w, `{"ticket":{"id":42,"subject":"VPN down","status":2,"priority":4,
			"fr_due_by":"2025-06-01T12:00:00Z",
			"stats":{"first_responded_at":null,"agent_responded_at":"2025-05-30T08:00:00Z"}}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ticket, err := c.TicketWithStats(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 42, ticket.ID)
	assert.Equal(t, "VPN down", ticket.Subject)
	assert.Equal(t, StatusOpen, ticket.Status)
	assert.Equal(t, PriorityUrgent, ticket.Priority)
	require.NotNil(t, ticket.FRDueBy)
	assert.Nil(t, ticket.Stats.FirstRespondedAt)
	require.NotNil(t, ticket.Stats.AgentRespondedAt)
	assert.NotEmpty(t, ticket.Raw)
}

func TestTicketGoneIsNotRetried(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.TicketWithStats(context.Background(), 9)
	assert.ErrorIs(t, err, ErrTicketGone)
	assert.Equal(t, 1, attempts)
}

func TestStatusAndPriorityText(t *testing.T) {
	assert.Equal(t, "Open", StatusText(StatusOpen))
	assert.Equal(t, "Waiting on Agent", StatusText(StatusWaitingOnAgent))
	assert.Equal(t, "Unknown Status (99)", StatusText(99))
	assert.Equal(t, "Urgent", PriorityText(PriorityUrgent))
	assert.Equal(t, "P-7", PriorityText(7))
}
