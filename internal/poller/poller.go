// Package poller runs the sync cycle that keeps the local ticket cache
// mirroring the Freshservice active set: list, fetch details, filter by type,
// write snapshots, archive what closed.
package poller

import (
	"context"
	"errors"
	"time"

	"beacon/internal/freshservice"
	"beacon/internal/ticketstore"
	"beacon/pkg/logger"
)

// TicketSource is the upstream API surface the poller consumes.
type TicketSource interface {
	ListActiveTickets(ctx context.Context) ([]int64, error)
	TicketWithStats(ctx context.Context, id int64) (*freshservice.Ticket, error)
	DetailSpacing() time.Duration
}

// Config tunes the loop.
type Config struct {
	Interval time.Duration
	// Types limits which ticket types get cached. Everything else is
	// treated as inactive and archived.
	Types []string
}

func (c *Config) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = 120 * time.Second
	}
	if len(c.Types) == 0 {
		c.Types = []string{"Incident", "Service Request"}
	}
}

// Poller owns one cache directory and one API client.
type Poller struct {
	cfg     Config
	src     TicketSource
	store   *ticketstore.Store
	log     *logger.Logger
	metrics *Metrics

	sleep func(time.Duration)
	now   func() time.Time
}

// New wires a Poller. metrics may be nil when the endpoint is disabled.
func New(cfg Config, src TicketSource, store *ticketstore.Store, metrics *Metrics, log *logger.Logger) *Poller {
	cfg.applyDefaults()
	return &Poller{
		cfg:     cfg,
		src:     src,
		store:   store,
		log:     log,
		metrics: metrics,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// CycleStats summarizes one completed cycle.
type CycleStats struct {
	Listed   int
	Cached   int
	New      int
	Archived int
	Failed   int
	Duration time.Duration
}

// Run cycles until the context is cancelled. A failed cycle is logged and
// skipped, never fatal; each cycle's cost is subtracted from the interval so
// the cadence holds steady under load.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller starting", map[string]interface{}{
		"interval": p.cfg.Interval.String(),
		"types":    p.cfg.Types,
		"dir":      p.store.Dir(),
	})

	for {
		start := p.now()
		stats, err := p.Cycle(ctx)
		elapsed := p.now().Sub(start)

		if ctx.Err() != nil {
			p.log.Info("poller stopping", nil)
			return
		}
		if err != nil {
			p.log.Error("poll cycle failed, will retry next interval", err, nil)
		} else {
			p.log.Info("poll cycle finished", map[string]interface{}{
				"listed": stats.Listed, "cached": stats.Cached, "new": stats.New,
				"archived": stats.Archived, "failed": stats.Failed,
				"duration": elapsed.String(),
			})
		}

		wait := p.cfg.Interval - elapsed
		if wait <= 0 {
			p.log.Warn("poll cycle overran the interval, starting next immediately", map[string]interface{}{
				"interval": p.cfg.Interval.String(), "duration": elapsed.String(),
			})
			continue
		}
		select {
		case <-ctx.Done():
			p.log.Info("poller stopping", nil)
			return
		case <-time.After(wait):
		}
	}
}

// Cycle performs one full sync pass. The list fetch failing aborts the whole
// cycle; a single detail fetch failing only excludes that ticket, and an
// excluded ticket's stale snapshot is kept rather than archived.
func (p *Poller) Cycle(ctx context.Context) (CycleStats, error) {
	start := p.now()
	var stats CycleStats

	ids, err := p.src.ListActiveTickets(ctx)
	if err != nil {
		return stats, err
	}
	stats.Listed = len(ids)

	wantType := make(map[string]bool, len(p.cfg.Types))
	for _, t := range p.cfg.Types {
		wantType[t] = true
	}

	var tickets []*freshservice.Ticket
	failed := make(map[int64]bool)
	for i, id := range ids {
		t, err := p.src.TicketWithStats(ctx, id)
		switch {
		case errors.Is(err, freshservice.ErrTicketGone):
			p.log.Info("ticket disappeared between list and detail fetch", map[string]interface{}{"ticket_id": id})
		case err != nil:
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			failed[id] = true
			p.log.Error("detail fetch failed, excluding ticket this cycle", err, map[string]interface{}{"ticket_id": id})
		case wantType[t.Type]:
			tickets = append(tickets, t)
		}

		if i < len(ids)-1 {
			p.sleep(p.src.DetailSpacing())
		}
	}

	active := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		active = append(active, t.ID)
	}
	// a failed detail fetch must not archive a ticket that is still active
	local, err := p.store.LocalIDs()
	if err != nil {
		return stats, err
	}
	for _, id := range local {
		if failed[id] {
			active = append(active, id)
		}
	}

	res, err := p.store.Sync(active, p.now())
	if err != nil {
		return stats, err
	}
	stats.New = len(res.New)
	stats.Archived = len(res.Archived)

	for _, t := range tickets {
		if err := p.store.Write(t); err != nil {
			p.log.Error("writing ticket snapshot failed", err, map[string]interface{}{"ticket_id": t.ID})
			stats.Failed++
			continue
		}
		stats.Cached++
	}

	stats.Duration = p.now().Sub(start)
	if p.metrics != nil {
		p.metrics.RecordCycle(stats)
	}
	return stats, nil
}
