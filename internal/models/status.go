package models

import "time"

// StatusKind is the derived temporal state of a session.
type StatusKind string

const (
	StatusEnded    StatusKind = "ended"
	StatusOngoing  StatusKind = "ongoing"
	StatusUpcoming StatusKind = "upcoming"
)

// TemporalStatus is never persisted. StartsIn is only set for upcoming
// sessions.
type TemporalStatus struct {
	Kind     StatusKind
	StartsIn time.Duration
}

// StatusAt classifies a session window against now. Both bounds count as
// ongoing.
func StatusAt(start, end, now time.Time) TemporalStatus {
	switch {
	case now.After(end):
		return TemporalStatus{Kind: StatusEnded}
	case !now.Before(start):
		return TemporalStatus{Kind: StatusOngoing}
	default:
		return TemporalStatus{Kind: StatusUpcoming, StartsIn: start.Sub(now)}
	}
}
