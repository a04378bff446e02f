package notification

import (
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
)

// Candidate is what the evaluator needs to know about a notification before it exists.
type Candidate struct {
	Type     string
	Priority models.Priority
}

// Decision is the outcome of ShouldDeliver. Channels is never nil.
type Decision struct {
	Enabled  bool
	Channels []models.Channel
}

var priorityRank = map[models.Priority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
	models.PriorityUrgent: 3,
}

// rank orders priorities low < medium < high < urgent; anything else sorts below low.
func rank(p models.Priority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

func disabled() Decision {
	return Decision{Enabled: false, Channels: []models.Channel{}}
}

// ShouldDeliver decides whether a notification of the given type and priority
// reaches the user at now, and over which channels.
func ShouldDeliver(pref *models.NotificationPreference, c Candidate, now time.Time) Decision {
	if pref == nil {
		return disabled()
	}
	typePref, ok := pref.NotificationTypes[c.Type]
	if !ok || !typePref.Enabled {
		return disabled()
	}
	if rank(c.Priority) < rank(typePref.MinPriority) {
		return disabled()
	}

	qh := pref.QuietHours
	bypass := c.Priority == models.PriorityUrgent && qh.ExcludeUrgent
	if qh.Enabled && !bypass && inQuietHours(qh, now) {
		return disabled()
	}

	channels := []models.Channel{}
	for _, ch := range models.Channels {
		if typePref.Channels.Enabled(ch) {
			channels = append(channels, ch)
		}
	}
	return Decision{Enabled: true, Channels: channels}
}

// inQuietHours compares zero-padded HH:MM strings, so "22:00" <= "23:15" holds lexically.
// Both window edges are inclusive; start > end means the window spans midnight.
func inQuietHours(qh models.QuietHours, now time.Time) bool {
	loc, err := time.LoadLocation(qh.Timezone)
	if err != nil || qh.Timezone == "" {
		loc = time.UTC
	}
	clock := now.In(loc).Format("15:04")

	if qh.Start <= qh.End {
		return qh.Start <= clock && clock <= qh.End
	}
	return clock >= qh.Start || clock <= qh.End
}
