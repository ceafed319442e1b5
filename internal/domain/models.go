package domain

import "time"

// Site is one monitored endpoint. The URL doubles as the site identifier;
// log file names are derived from it.
type Site struct {
	URL          string `json:"url"`
	PollInterval int    `json:"poll_interval_seconds"`
}

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// SiteState is the health state machine for one site. It is owned by
// exactly one monitor goroutine and never shared, so it needs no locking.
type SiteState struct {
	Status              Status
	ConsecutiveFailures int
	LastSuccessAt       time.Time // zero until the first successful probe
	LastAlertAt         time.Time // zero until the first ALERT
}

// NewSiteState starts optimistic: a site counts as up until a probe says
// otherwise.
func NewSiteState() SiteState {
	return SiteState{Status: StatusUp}
}
