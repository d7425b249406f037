package luxafor

import (
	"context"
	"time"

	"beacon/internal/freshservice"
	"beacon/internal/ticketstore"
	"beacon/pkg/logger"
)

const (
	strobeSpeed  = 15
	strobeRepeat = 0 // forever
)

// States are the coarse counts the light decision runs on.
type States struct {
	Open         int
	WaitingAgent int
	FROverdue    int
	Errors       int
}

// ScanStates derives the light-relevant counts from the cached tickets.
func ScanStates(store *ticketstore.Store, now time.Time) States {
	var s States
	tickets, corrupt, err := store.ReadAll()
	if err != nil {
		s.Errors++
		return s
	}
	s.Errors += corrupt

	for _, t := range tickets {
		switch t.Status {
		case freshservice.StatusOpen:
			s.Open++
			if t.Stats.FirstRespondedAt == nil && t.FRDueBy != nil && t.FRDueBy.Before(now) {
				s.FROverdue++
			}
		case freshservice.StatusWaitingOnAgent:
			s.WaitingAgent++
		}
	}
	return s
}

// Apply sets the light for the given counts. Priority is strict:
// error > FR overdue > open > waiting on agent > all clear.
func Apply(dev Device, s States) error {
	if err := dev.Off(); err != nil {
		return err
	}
	switch {
	case s.Errors > 0:
		return dev.Static(Magenta)
	case s.FROverdue > 0:
		return dev.Strobe(Red, strobeSpeed, strobeRepeat)
	case s.Open > 0:
		return dev.Static(Red)
	case s.WaitingAgent > 0:
		return dev.Static(Yellow)
	default:
		return dev.Static(Green)
	}
}

// Controller polls the cache and keeps the light current, reconnecting to
// the device whenever a command fails.
type Controller struct {
	store    *ticketstore.Store
	log      *logger.Logger
	interval time.Duration

	dial func() (Device, error)
	now  func() time.Time

	dev Device
}

// NewController wires a Controller; dial opens the device, called initially
// and again after any failure.
func NewController(store *ticketstore.Store, dial func() (Device, error), interval time.Duration, log *logger.Logger) *Controller {
	if interval == 0 {
		interval = 10 * time.Second
	}
	return &Controller{
		store:    store,
		log:      log,
		interval: interval,
		dial:     dial,
		now:      time.Now,
	}
}

// Run loops until the context is cancelled, then turns the light off.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Tick()
	for {
		select {
		case <-ctx.Done():
			if c.dev != nil {
				if err := c.dev.Off(); err == nil {
					c.dev.Close()
				}
				c.dev = nil
			}
			c.log.Info("light controller stopping", nil)
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick performs one observe-and-set pass.
func (c *Controller) Tick() {
	if c.dev == nil {
		dev, err := c.dial()
		if err != nil {
			c.log.Warn("light device unavailable, will retry", map[string]interface{}{"error": err.Error()})
			return
		}
		c.log.Info("light device connected", nil)
		c.dev = dev
	}

	states := ScanStates(c.store, c.now())
	if err := Apply(c.dev, states); err != nil {
		c.log.Error("light command failed, dropping connection", err, nil)
		c.dev.Close()
		c.dev = nil
		return
	}
	c.log.Debug("light updated", map[string]interface{}{
		"open": states.Open, "waiting_agent": states.WaitingAgent,
		"fr_overdue": states.FROverdue, "errors": states.Errors,
	})
}
