package classify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/freshservice"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func tsPtr(t time.Time) *time.Time { return &t }

func ticket(status, priority int, mutate ...func(*freshservice.Ticket)) *freshservice.Ticket {
	t := &freshservice.Ticket{
		ID:        1,
		Subject:   "test",
		Status:    status,
		Priority:  priority,
		CreatedAt: tsPtr(now.Add(-24 * time.Hour)),
		UpdatedAt: tsPtr(now.Add(-10 * time.Minute)),
	}
	for _, m := range mutate {
		m(t)
	}
	return t
}

func TestOverdueFirstResponseLandsInFirstResponseBucket(t *testing.T) {
	tk := ticket(freshservice.StatusOpen, freshservice.PriorityMedium, func(tk *freshservice.Ticket) {
		tk.FRDueBy = tsPtr(now.Add(-2 * time.Hour))
	})

	c := Classify(tk, now, DefaultConfig())

	assert.Equal(t, BucketFirstResponse, c.Bucket)
	assert.Equal(t, SLAOverdue, c.SLAClass)
	assert.Contains(t, c.SLAText, "Overdue")
	assert.Contains(t, c.SLAText, "2.0 hours")
	assert.Negative(t, c.Key.Urgency)
}

func TestFirstResponseThresholds(t *testing.T) {
	cases := []struct {
		name  string
		due   time.Duration
		class string
	}{
		{"inside critical window", 2 * time.Hour, SLACritical},
		{"inside warning window", 8 * time.Hour, SLAWarning},
		{"comfortable", 36 * time.Hour, SLANormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := ticket(freshservice.StatusOpen, freshservice.PriorityMedium, func(tk *freshservice.Ticket) {
				tk.FRDueBy = tsPtr(now.Add(tc.due))
			})
			c := Classify(tk, now, DefaultConfig())
			assert.Equal(t, tc.class, c.SLAClass)
			assert.Equal(t, BucketFirstResponse, c.Bucket)
		})
	}
}

func TestMissingDueDateIsLowestUrgencyNotError(t *testing.T) {
	tk := ticket(freshservice.StatusOpen, freshservice.PriorityLow)

	c := Classify(tk, now, DefaultConfig())

	assert.Equal(t, BucketFirstResponse, c.Bucket)
	assert.Equal(t, "No FR Due Date", c.SLAText)
	assert.Equal(t, SLANone, c.SLAClass)

	withDue := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityLow, func(tk *freshservice.Ticket) {
		tk.FRDueBy = tsPtr(now.Add(200 * time.Hour))
	}), now, DefaultConfig())
	assert.True(t, withDue.Key.Less(c.Key), "any real due date must sort ahead of a missing one")
}

func TestRespondedOpenTicketSortsAfterUnresponded(t *testing.T) {
	unresponded := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityMedium, func(tk *freshservice.Ticket) {
		tk.FRDueBy = tsPtr(now.Add(100 * time.Hour))
	}), now, DefaultConfig())
	responded := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityMedium, func(tk *freshservice.Ticket) {
		tk.Stats.FirstRespondedAt = tsPtr(now.Add(-1 * time.Hour))
	}), now, DefaultConfig())

	assert.Equal(t, SLAResponded, responded.SLAClass)
	assert.True(t, unresponded.Key.Less(responded.Key))
}

func TestCustomerRepliedBucket(t *testing.T) {
	tk := ticket(freshservice.StatusWaitingOnAgent, freshservice.PriorityLow)
	c := Classify(tk, now, DefaultConfig())

	assert.Equal(t, BucketCustomerReplied, c.Bucket)
	assert.Equal(t, SLAWarning, c.SLAClass)
	assert.Contains(t, c.SLAText, "Waiting on Agent")
}

func TestUpdateBreachOverridesStatusBucket(t *testing.T) {
	// customer replied, but urgent and silent past its 30m allowance
	tk := ticket(freshservice.StatusWaitingOnAgent, freshservice.PriorityUrgent, func(tk *freshservice.Ticket) {
		tk.UpdatedAt = tsPtr(now.Add(-3 * time.Hour))
	})
	c := Classify(tk, now, DefaultConfig())

	assert.Equal(t, BucketUpdateOverdue, c.Bucket)
	assert.Equal(t, SLAOverdue, c.SLAClass)
	assert.Contains(t, c.SLAText, "No update in 3h")
	assert.Positive(t, c.UpdateOverdueBy)
}

func TestUpdateBreachSortsUrgentFirstThenSilentLongest(t *testing.T) {
	urgent := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityUrgent, func(tk *freshservice.Ticket) {
		tk.UpdatedAt = tsPtr(now.Add(-1 * time.Hour))
	}), now, DefaultConfig())
	lowOld := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityLow, func(tk *freshservice.Ticket) {
		tk.UpdatedAt = tsPtr(now.Add(-200 * time.Hour))
	}), now, DefaultConfig())
	lowOlder := Classify(ticket(freshservice.StatusOpen, freshservice.PriorityLow, func(tk *freshservice.Ticket) {
		tk.UpdatedAt = tsPtr(now.Add(-300 * time.Hour))
	}), now, DefaultConfig())

	require.Equal(t, BucketUpdateOverdue, urgent.Bucket)
	require.Equal(t, BucketUpdateOverdue, lowOld.Bucket)
	require.Equal(t, BucketUpdateOverdue, lowOlder.Bucket)

	items := []Classified{lowOld, urgent, lowOlder}
	SortBucket(items)
	assert.Equal(t, freshservice.PriorityUrgent, items[0].Ticket.Priority)
	assert.Equal(t, lowOlder.Ticket.UpdatedAt, items[1].Ticket.UpdatedAt)
}

func TestOtherActiveSubLabels(t *testing.T) {
	waiting := Classify(ticket(freshservice.StatusWaitingOnCustomer, freshservice.PriorityLow, func(tk *freshservice.Ticket) {
		tk.Stats.AgentRespondedAt = tsPtr(now.Add(-2 * time.Hour))
	}), now, DefaultConfig())
	assert.Equal(t, BucketOtherActive, waiting.Bucket)
	assert.Equal(t, "Waiting on Customer (Agent: 2h ago)", waiting.SLAText)
	assert.Equal(t, SLAResponded, waiting.SLAClass)

	onHold := Classify(ticket(freshservice.StatusOnHold, freshservice.PriorityLow), now, DefaultConfig())
	assert.Equal(t, BucketOtherActive, onHold.Bucket)
	assert.Equal(t, SLANone, onHold.SLAClass)

	scheduled := Classify(ticket(freshservice.StatusScheduled, freshservice.PriorityLow), now, DefaultConfig())
	assert.Equal(t, BucketOtherActive, scheduled.Bucket)
	assert.Equal(t, SLAInProgress, scheduled.SLAClass)
}

func TestClassifyIsIdempotent(t *testing.T) {
	tk := ticket(freshservice.StatusOpen, freshservice.PriorityHigh, func(tk *freshservice.Ticket) {
		tk.FRDueBy = tsPtr(now.Add(90 * time.Minute))
	})
	a := Classify(tk, now, DefaultConfig())
	b := Classify(tk, now, DefaultConfig())
	assert.Equal(t, a.Bucket, b.Bucket)
	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, a.SLAText, b.SLAText)
}

func TestHumanizeHelpers(t *testing.T) {
	assert.Equal(t, "Just now", timeSince(tsPtr(now.Add(-5*time.Second)), now))
	assert.Equal(t, "12m ago", timeSince(tsPtr(now.Add(-12*time.Minute)), now))
	assert.Equal(t, "5h ago", timeSince(tsPtr(now.Add(-5*time.Hour)), now))
	assert.Equal(t, "3d ago", timeSince(tsPtr(now.Add(-76*time.Hour)), now))
	assert.Equal(t, "in the future", timeSince(tsPtr(now.Add(time.Hour)), now))
	assert.Equal(t, "N/A", timeSince(nil, now))

	assert.Equal(t, "Today", daysOld(tsPtr(now.Add(-2*time.Hour)), now))
	assert.Equal(t, "1 day old", daysOld(tsPtr(now.Add(-13*time.Hour)), now)) // crossed midnight
	assert.Equal(t, "4 days old", daysOld(tsPtr(now.Add(-4*24*time.Hour)), now))
	assert.Equal(t, "Future Date", daysOld(tsPtr(now.Add(25*time.Hour)), now))
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.UpdateAllowance[freshservice.PriorityUrgent])

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, cfg.FRCritical)

	path := filepath.Join(t.TempDir(), "sla.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"first_response:\n  critical: 2h\nupdate_sla:\n  urgent: 15m\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.FRCritical)
	assert.Equal(t, 12*time.Hour, cfg.FRWarning)
	assert.Equal(t, 15*time.Minute, cfg.UpdateAllowance[freshservice.PriorityUrgent])
	assert.Equal(t, 48*time.Hour, cfg.UpdateAllowance[freshservice.PriorityHigh])
}

func TestLoadConfigRejectsInvertedThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sla.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"update_sla:\n  urgent: 100h\n  high: 1h\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
