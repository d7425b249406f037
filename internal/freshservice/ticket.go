package freshservice

import (
	"encoding/json"
	"strconv"
	"time"
)

// Ticket status ids as Freshservice reports them.
const (
	StatusOpen              = 2
	StatusPending           = 3
	StatusScheduled         = 8
	StatusWaitingOnCustomer = 9
	StatusWaitingThirdParty = 10
	StatusUnderInvestigation = 13
	StatusUpdateNeeded      = 19
	StatusOnHold            = 23
	StatusWaitingOnAgent    = 26
	StatusReopened          = 27
)

// Ticket priority ids.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4
)

// Stats is the nested SLA stats object returned with include=stats.
type Stats struct {
	FirstRespondedAt *time.Time `json:"first_responded_at"`
	AgentRespondedAt *time.Time `json:"agent_responded_at"`
	StatusUpdatedAt  *time.Time `json:"status_updated_at"`
}

// Ticket is the subset of the Freshservice ticket detail object the dashboard
// derives its view from. Raw carries the full API object verbatim so the file
// cache stays lossless.
type Ticket struct {
	ID          int64      `json:"id"`
	Subject     string     `json:"subject"`
	RequesterID *int64     `json:"requester_id"`
	ResponderID *int64     `json:"responder_id"`
	GroupID     *int64     `json:"group_id"`
	Status      int        `json:"status"`
	Priority    int        `json:"priority"`
	Description string     `json:"description_text"`
	Type        string     `json:"type"`
	FRDueBy     *time.Time `json:"fr_due_by"`
	DueBy       *time.Time `json:"due_by"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Stats       Stats      `json:"stats"`

	Raw json.RawMessage `json:"-"`
}

// ParseTicket decodes a ticket detail object, keeping the raw bytes attached.
func ParseTicket(data []byte) (*Ticket, error) {
	var t Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	t.Raw = append(json.RawMessage(nil), data...)
	return &t, nil
}

// StatusText maps a status id to its display name.
func StatusText(status int) string {
	switch status {
	case StatusOpen:
		return "Open"
	case StatusPending:
		return "Pending"
	case StatusScheduled:
		return "Scheduled"
	case StatusWaitingOnCustomer:
		return "Waiting on Customer"
	case StatusWaitingThirdParty:
		return "Waiting on Third Party"
	case StatusUnderInvestigation:
		return "Under Investigation"
	case StatusUpdateNeeded:
		return "Update Needed"
	case StatusOnHold:
		return "On Hold"
	case StatusWaitingOnAgent:
		return "Waiting on Agent"
	case StatusReopened:
		return "Reopened"
	default:
		return "Unknown Status (" + strconv.Itoa(status) + ")"
	}
}

// PriorityText maps a priority id to its display name.
func PriorityText(priority int) string {
	switch priority {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return "P-" + strconv.Itoa(priority)
	}
}
