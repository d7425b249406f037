// Package classify turns raw ticket records into display-ready rows: derived
// text fields, an SLA class for styling, a bucket assignment, and a sort key.
// Classification is pure; everything is deterministic given "now".
package classify

import (
	"fmt"
	"sort"
	"time"

	"beacon/internal/freshservice"
)

// CSS classes attached to the SLA cell.
const (
	SLAOverdue    = "sla-overdue"
	SLACritical   = "sla-critical"
	SLAWarning    = "sla-warning"
	SLANormal     = "sla-normal"
	SLANone       = "sla-none"
	SLAResponded  = "sla-responded"
	SLAInProgress = "sla-in-progress"
)

// Bucket is the dashboard section a ticket lands in. Every ticket lands in
// exactly one.
type Bucket int

const (
	BucketFirstResponse Bucket = iota + 1
	BucketCustomerReplied
	BucketUpdateOverdue
	BucketOtherActive
)

func (b Bucket) String() string {
	switch b {
	case BucketFirstResponse:
		return "needs-first-response"
	case BucketCustomerReplied:
		return "customer-replied"
	case BucketUpdateOverdue:
		return "update-overdue"
	case BucketOtherActive:
		return "other-active"
	default:
		return "unknown"
	}
}

// SortKey orders rows within a bucket. Fields compare lexicographically;
// smaller sorts first.
type SortKey struct {
	Tier     int
	Urgency  float64
	Tiebreak float64
}

// Less reports whether k orders before o.
func (k SortKey) Less(o SortKey) bool {
	if k.Tier != o.Tier {
		return k.Tier < o.Tier
	}
	if k.Urgency != o.Urgency {
		return k.Urgency < o.Urgency
	}
	return k.Tiebreak < o.Tiebreak
}

// Classified is a ticket enriched with everything the board needs to render
// it: display texts, SLA styling, bucket, and intra-bucket sort key.
type Classified struct {
	Ticket *freshservice.Ticket

	Bucket Bucket
	Key    SortKey

	StatusText             string
	PriorityText           string
	UpdatedFriendly        string
	CreatedDaysOld         string
	AgentRespondedFriendly string

	SLAText  string
	SLAClass string

	// UpdateOverdueBy is how far past its update allowance the ticket is,
	// zero when within allowance.
	UpdateOverdueBy time.Duration
}

// Classify places one ticket into its bucket and computes the derived display
// fields. Precedence: an update-allowance breach wins over any status, then
// the customer-replied status, then the open/pending/update-needed statuses
// go to the first-response section, then everything else.
func Classify(t *freshservice.Ticket, now time.Time, cfg Config) Classified {
	c := Classified{
		Ticket:                 t,
		StatusText:             freshservice.StatusText(t.Status),
		PriorityText:           freshservice.PriorityText(t.Priority),
		UpdatedFriendly:        timeSince(t.UpdatedAt, now),
		CreatedDaysOld:         daysOld(t.CreatedAt, now),
		AgentRespondedFriendly: timeSince(t.Stats.AgentRespondedAt, now),
	}

	var updatedTS float64
	if t.UpdatedAt != nil {
		updatedTS = float64(t.UpdatedAt.Unix())
	}

	if allowance, ok := cfg.UpdateAllowance[t.Priority]; ok && t.UpdatedAt != nil {
		if silence := now.Sub(*t.UpdatedAt); silence > allowance {
			c.UpdateOverdueBy = silence - allowance
		}
	}

	switch {
	case c.UpdateOverdueBy > 0:
		c.Bucket = BucketUpdateOverdue
		c.SLAText = fmt.Sprintf("No update in %s (limit %s)",
			humanDuration(now.Sub(*t.UpdatedAt)), humanDuration(cfg.UpdateAllowance[t.Priority]))
		c.SLAClass = SLAOverdue
		// urgent first, then the longest-silent within a priority
		c.Key = SortKey{Tier: -t.Priority, Urgency: updatedTS}

	case t.Status == freshservice.StatusWaitingOnAgent:
		c.Bucket = BucketCustomerReplied
		c.SLAText = fmt.Sprintf("Waiting on Agent (%s)", c.UpdatedFriendly)
		c.SLAClass = SLAWarning
		c.Key = SortKey{Urgency: updatedTS}

	case needsFirstResponseStatus(t.Status):
		c.Bucket = BucketFirstResponse
		if t.Stats.FirstRespondedAt == nil {
			text, class, metric := frSLA(t.FRDueBy, now, cfg.FRCritical, cfg.FRWarning)
			c.SLAText, c.SLAClass = text, class
			c.Key = SortKey{Tier: 0, Urgency: metric, Tiebreak: -updatedTS}
		} else {
			c.SLAText = fmt.Sprintf("%s (%s)", c.StatusText, c.UpdatedFriendly)
			c.SLAClass = SLAResponded
			c.Key = SortKey{Tier: 1, Urgency: -updatedTS}
		}

	default:
		c.Bucket = BucketOtherActive
		switch t.Status {
		case freshservice.StatusWaitingOnCustomer:
			c.SLAText = "Waiting on Customer"
			if c.AgentRespondedFriendly != "N/A" {
				c.SLAText += fmt.Sprintf(" (Agent: %s)", c.AgentRespondedFriendly)
			}
			c.SLAClass = SLAResponded
		case freshservice.StatusOnHold:
			c.SLAText = fmt.Sprintf("On Hold (%s)", c.UpdatedFriendly)
			c.SLAClass = SLANone
		default:
			c.SLAText = fmt.Sprintf("%s (%s)", c.StatusText, c.UpdatedFriendly)
			c.SLAClass = SLAInProgress
		}
		c.Key = SortKey{Urgency: updatedTS}
	}

	return c
}

func needsFirstResponseStatus(status int) bool {
	switch status {
	case freshservice.StatusOpen, freshservice.StatusPending, freshservice.StatusUpdateNeeded:
		return true
	}
	return false
}

// SortBucket orders rows in place by their sort keys.
func SortBucket(items []Classified) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Key.Less(items[j].Key) })
}
