package classify

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// timeSince renders "3h ago" style relative timestamps for list rows.
func timeSince(t *time.Time, now time.Time) string {
	if t == nil {
		return "N/A"
	}
	diff := now.Sub(*t)
	if diff < 0 {
		return "in the future"
	}
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	default:
		return "Just now"
	}
}

// daysOld renders ticket age by calendar day, not elapsed hours, so a ticket
// opened late yesterday already reads "1 day old" this morning.
func daysOld(t *time.Time, now time.Time) string {
	if t == nil {
		return "N/A"
	}
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	days := int(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).
		Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)).Hours() / 24)

	switch {
	case days < 0:
		return "Future Date"
	case days == 0:
		return "Today"
	case days == 1:
		return "1 day old"
	default:
		return fmt.Sprintf("%d days old", days)
	}
}

// frSLA computes the first-response countdown for a ticket nobody has replied
// to yet. The unit auto-scales with magnitude. hoursRemaining is the sort
// metric: negative when overdue, so the most overdue tickets sort first.
func frSLA(due *time.Time, now time.Time, critical, warning time.Duration) (text, class string, hoursRemaining float64) {
	if due == nil {
		return "No FR Due Date", SLANone, math.MaxFloat64
	}

	remaining := due.Sub(now)
	hoursRemaining = remaining.Hours()
	abs := remaining
	if abs < 0 {
		abs = -abs
	}

	var value string
	var unit string
	switch {
	case abs >= 48*time.Hour:
		unit, value = "days", fmt.Sprintf("%.1f", hoursRemaining/24)
	case abs >= time.Hour:
		unit, value = "hours", fmt.Sprintf("%.1f", hoursRemaining)
	case abs >= time.Minute:
		unit, value = "min", fmt.Sprintf("%.0f", remaining.Minutes())
	default:
		unit, value = "sec", fmt.Sprintf("%.0f", remaining.Seconds())
	}

	switch {
	case remaining < 0:
		return fmt.Sprintf("FR Overdue by %s %s", strings.TrimPrefix(value, "-"), unit), SLAOverdue, hoursRemaining
	case remaining < critical:
		return fmt.Sprintf("%s %s for FR", value, unit), SLACritical, hoursRemaining
	case remaining < warning:
		return fmt.Sprintf("%s %s for FR", value, unit), SLAWarning, hoursRemaining
	default:
		return fmt.Sprintf("%s %s for FR", value, unit), SLANormal, hoursRemaining
	}
}

// humanDuration renders an update-overdue amount compactly: "45m", "3h", "2d".
func humanDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
