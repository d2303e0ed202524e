package timecalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidHHMM is returned for target strings that are not "HH:mm".
var ErrInvalidHHMM = errors.New("invalid HH:mm value")

// ParseHHMM converts "HH:mm" into decimal hours ("07:24" is 7.4). Hours may
// exceed 23 for weekly targets; minutes must be 0-59.
func ParseHHMM(s string) (float64, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHHMM, s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHHMM, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 || len(ms) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHHMM, s)
	}
	return float64(h) + float64(m)/60, nil
}

// IsWeekend reports whether day is a Saturday or Sunday.
func IsWeekend(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}

// DailyTarget returns the target hours for a day of the given weekday.
// Weekends always have a zero target.
func DailyTarget(day time.Weekday, perDay float64) float64 {
	if IsWeekend(day) {
		return 0
	}
	return perDay
}

// Progress statuses.
const (
	StatusUnder    = "under"
	StatusMet      = "met"
	StatusExceeded = "exceeded"
)

// Progress compares worked hours against a target. Percent is nil on a
// zero-target day, where no ratio exists; Status still says exceeded once
// any time is worked.
type Progress struct {
	WorkedHours float64  `json:"worked_hours"`
	TargetHours float64  `json:"target_hours"`
	Percent     *float64 `json:"percent"`
	Status      string   `json:"status"`
}

// PercentLabel formats Percent for display. A zero-target day reads ">100%"
// when worked and "0%" when idle.
func (p Progress) PercentLabel() string {
	if p.Percent == nil {
		if p.Status == StatusExceeded {
			return ">100%"
		}
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", *p.Percent)
}

// hoursEpsilon absorbs float noise below a second.
const hoursEpsilon = 1.0 / 3600 / 2

// ComputeProgress builds the Progress of worked against target hours.
// Any worked time on a zero-target day counts as exceeded.
func ComputeProgress(worked, target float64) Progress {
	p := Progress{WorkedHours: worked, TargetHours: target}
	if target > 0 {
		pct := worked / target * 100
		p.Percent = &pct
	}
	switch {
	case worked-target > hoursEpsilon:
		p.Status = StatusExceeded
	case target-worked > hoursEpsilon:
		p.Status = StatusUnder
	default:
		p.Status = StatusMet
	}
	return p
}
