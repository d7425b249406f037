// Package corelink handles service-to-service calls inside the platform:
// it obtains short-lived tokens from the Core service and makes bearer
// authenticated requests to the registered peers, primarily the codex
// ticket-sync service. A peer being down degrades the feature, it never
// takes the dashboard down.
package corelink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"beacon/internal/freshservice"
	"beacon/pkg/logger"
)

// ErrUnavailable marks a peer that answered badly or not at all.
var ErrUnavailable = errors.New("corelink: service unavailable")

// Service is one entry in services.json.
type Service struct {
	URL string `json:"url"`
}

// LoadServices reads the service registry file. A missing file yields an
// empty registry so a standalone deployment still starts.
func LoadServices(path string) (map[string]Service, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Service{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("corelink: reading %s: %w", path, err)
	}
	var services map[string]Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("corelink: parsing %s: %w", path, err)
	}
	return services, nil
}

// Config wires the client.
type Config struct {
	CoreURL  string // Core service base URL, issuer of service tokens
	SelfName string // our name in the registry, sent as calling_service
	Services map[string]Service
}

// Client makes authenticated calls to peer services.
type Client struct {
	cfg       Config
	tokenHTTP *http.Client
	callHTTP  *http.Client
	log       *logger.Logger
}

// New returns a Client. Token requests get a tight 5s budget; data calls 30s.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.SelfName == "" {
		cfg.SelfName = "beacon"
	}
	return &Client{
		cfg:       cfg,
		tokenHTTP: &http.Client{Timeout: 5 * time.Second},
		callHTTP:  &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// Registered reports whether a peer exists in the service registry.
func (c *Client) Registered(name string) bool {
	_, ok := c.cfg.Services[name]
	return ok
}

// ServiceToken asks Core for a token scoped to the target service.
func (c *Client) ServiceToken(ctx context.Context, target string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"calling_service": c.cfg.SelfName,
		"target_service":  target,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.CoreURL+"/service-token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.tokenHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrUnavailable, err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnavailable)
	}
	return body.Token, nil
}

// get calls a registered peer with a fresh service token.
func (c *Client) get(ctx context.Context, service, path string) ([]byte, error) {
	svc, ok := c.cfg.Services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in service registry", ErrUnavailable, service)
	}
	token, err := c.ServiceToken(ctx, service)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.callHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s%s: %v", ErrUnavailable, service, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s%s returned %d", ErrUnavailable, service, path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ActiveTickets is the codex sync snapshot: raw ticket records plus when
// codex last synced them from the PSA.
type ActiveTickets struct {
	Tickets      []*freshservice.Ticket
	LastSyncTime string
}

// FetchActiveTickets pulls the active set from codex. Records that fail to
// parse are dropped individually.
func (c *Client) FetchActiveTickets(ctx context.Context) (*ActiveTickets, error) {
	body, err := c.get(ctx, "codex", "/api/tickets/active")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tickets      []json.RawMessage `json:"tickets"`
		LastSyncTime string            `json:"last_sync_time"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding active tickets: %v", ErrUnavailable, err)
	}

	out := &ActiveTickets{LastSyncTime: payload.LastSyncTime}
	for _, raw := range payload.Tickets {
		t, err := freshservice.ParseTicket(raw)
		if err != nil {
			c.log.Warn("dropping unparseable ticket from codex", map[string]interface{}{"error": err.Error()})
			continue
		}
		out.Tickets = append(out.Tickets, t)
	}
	return out, nil
}

// Agents pulls the active agent roster from codex, keyed by the agents'
// PSA-side ids. Satisfies directory.Source.
func (c *Client) Agents(ctx context.Context) (map[int64]string, error) {
	body, err := c.get(ctx, "codex", "/api/psa/agents")
	if err != nil {
		return nil, err
	}

	var agents []struct {
		ExternalID int64  `json:"external_id"`
		Name       string `json:"name"`
		Active     *bool  `json:"active"`
	}
	if err := json.Unmarshal(body, &agents); err != nil {
		return nil, fmt.Errorf("%w: decoding agents: %v", ErrUnavailable, err)
	}

	out := make(map[int64]string, len(agents))
	for _, a := range agents {
		if a.Active != nil && !*a.Active {
			continue
		}
		out[a.ExternalID] = a.Name
	}
	return out, nil
}

// Health checks whether codex answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "codex", "/api/health")
	return err
}
