package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tunneld/pkg/logger"
)

// RuleKind names the supported recurrence shapes
type RuleKind string

const (
	RuleHourly RuleKind = "hourly" // top of every hour
	RuleDaily  RuleKind = "daily"  // fixed time of day
	RuleWeekly RuleKind = "weekly" // fixed weekday and time of day
	RuleEvery  RuleKind = "every"  // fixed interval from now
)

// Rule is a structured recurrence rule. Only the fields relevant to Kind are
// read; this is deliberately not a cron evaluator.
type Rule struct {
	Kind    RuleKind
	Weekday time.Weekday  // weekly only
	Hour    int           // daily, weekly
	Minute  int           // daily, weekly
	Every   time.Duration // every only
}

// Hourly runs at the top of every hour
func Hourly() Rule {
	return Rule{Kind: RuleHourly}
}

// Daily runs once a day at the given time
func Daily(hour, minute int) Rule {
	return Rule{Kind: RuleDaily, Hour: hour, Minute: minute}
}

// Weekly runs once a week on the given weekday at the given time
func Weekly(weekday time.Weekday, hour, minute int) Rule {
	return Rule{Kind: RuleWeekly, Weekday: weekday, Hour: hour, Minute: minute}
}

// Every runs at a fixed interval measured from the previous completion
func Every(d time.Duration) Rule {
	return Rule{Kind: RuleEvery, Every: d}
}

// Next computes the first occurrence strictly after now
func (r Rule) Next(now time.Time) time.Time {
	switch r.Kind {
	case RuleHourly:
		return now.Truncate(time.Hour).Add(time.Hour)
	case RuleDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), r.Hour, r.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case RuleWeekly:
		next := time.Date(now.Year(), now.Month(), now.Day(), r.Hour, r.Minute, 0, 0, now.Location())
		for next.Weekday() != r.Weekday || !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		d := r.Every
		if d <= 0 {
			d = time.Hour
		}
		return now.Add(d)
	}
}

// String renders the rule in the same shape ParseRule accepts
func (r Rule) String() string {
	switch r.Kind {
	case RuleHourly:
		return "hourly"
	case RuleDaily:
		return fmt.Sprintf("daily %02d:%02d", r.Hour, r.Minute)
	case RuleWeekly:
		return fmt.Sprintf("weekly %s %02d:%02d", strings.ToLower(r.Weekday.String()), r.Hour, r.Minute)
	default:
		d := r.Every
		if d <= 0 {
			d = time.Hour
		}
		return fmt.Sprintf("every %s", d)
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseRule parses a config recurrence string:
//
//	"hourly"
//	"daily HH:MM"
//	"weekly <weekday> HH:MM"
//	"every <duration>"
//
// Anything else degrades to a one-hour interval with a warning, so a
// misconfigured task keeps running rather than never firing.
func ParseRule(s string) Rule {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) > 0 {
		switch fields[0] {
		case "hourly":
			if len(fields) == 1 {
				return Hourly()
			}
		case "daily":
			if len(fields) == 2 {
				if hour, minute, err := parseClock(fields[1]); err == nil {
					return Daily(hour, minute)
				}
			}
		case "weekly":
			if len(fields) == 3 {
				weekday, ok := weekdays[fields[1]]
				if ok {
					if hour, minute, err := parseClock(fields[2]); err == nil {
						return Weekly(weekday, hour, minute)
					}
				}
			}
		case "every":
			if len(fields) == 2 {
				if d, err := time.ParseDuration(fields[1]); err == nil && d > 0 {
					return Every(d)
				}
			}
		}
	}

	logger.Warnf("unrecognized recurrence rule %q, falling back to a one-hour interval", s)
	return Every(time.Hour)
}

func parseClock(s string) (hour int, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
