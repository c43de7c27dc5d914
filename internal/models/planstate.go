package models

import (
	"time"

	"gorm.io/datatypes"
)

type PlanStatus string

const (
	StatusNotStarted PlanStatus = "not_started"
	StatusRunning    PlanStatus = "running"
	StatusFinished   PlanStatus = "finished"
)

// PlanState is the derived temporal position of a plan for one observer.
// CurrentDay is 0 before the plan starts and stays pinned to the last day
// once a non-recurring plan finishes; callers tell "finished" apart from
// "unstarted" by Status, never by day number. DaysUntilStart is populated
// only for live plans that have not begun (0 meaning "not scheduled").
type PlanState struct {
	CurrentDay     int        `json:"currentDay"`
	Status         PlanStatus `json:"status"`
	DaysUntilStart *int       `json:"daysUntilStart,omitempty"`
}

// DeriveState computes the plan's current day and status from wall-clock
// time. Templates and archived plans run on the follower's own clock
// (follow.StartDate); live plans run on the shared cohort clock
// (LiveStartDate) and ignore the individual follow entirely. The function
// is pure: no I/O, no side effects, a well-defined state for every input.
func (p *Plan) DeriveState(follow *Follow, now time.Time) PlanState {
	if p.DurationDays <= 0 {
		return PlanState{Status: StatusNotStarted}
	}

	if p.PlanKind == PlanKindLive {
		return p.deriveLiveState(now)
	}

	if follow == nil || !follow.IsActive {
		return PlanState{Status: StatusNotStarted}
	}

	elapsed := daysBetween(time.Time(follow.StartDate), now)
	if elapsed < 0 {
		return PlanState{Status: StatusNotStarted}
	}

	return p.stateAt(elapsed)
}

func (p *Plan) deriveLiveState(now time.Time) PlanState {
	if p.LiveStartDate == nil {
		zero := 0
		return PlanState{Status: StatusNotStarted, DaysUntilStart: &zero}
	}

	start := time.Time(*p.LiveStartDate)
	elapsed := daysBetween(start, now)
	if elapsed < 0 {
		until := -elapsed
		return PlanState{Status: StatusNotStarted, DaysUntilStart: &until}
	}

	return p.stateAt(elapsed)
}

// stateAt maps whole elapsed calendar days since the anchor onto a day
// number and status. elapsed == DurationDays is the first day past the
// plan, hence finished; recurring plans cycle 1..DurationDays forever.
func (p *Plan) stateAt(elapsed int) PlanState {
	if p.IsRecurring {
		return PlanState{
			CurrentDay: elapsed%p.DurationDays + 1,
			Status:     StatusRunning,
		}
	}

	if elapsed >= p.DurationDays {
		return PlanState{CurrentDay: p.DurationDays, Status: StatusFinished}
	}

	return PlanState{CurrentDay: elapsed + 1, Status: StatusRunning}
}

// daysBetween subtracts calendar dates, not elapsed hours, so any time of
// day on the start date counts as day one. Negative when "to" precedes
// "from".
func daysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

// Today returns the current calendar date, the anchor used for completion
// records and progress rows.
func Today() datatypes.Date {
	now := time.Now().UTC()
	return datatypes.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
