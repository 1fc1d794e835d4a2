package scheduler

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_NextIsStrictlyFuture verifies that every rule shape always
// produces an occurrence strictly after the reference time, for any reference
// time. A rule whose Next can return the present would make the poll loop
// re-fire the same occurrence forever.
func TestProperty_NextIsStrictlyFuture(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	// arbitrary instants across a decade, at second granularity
	genNow := gen.Int64Range(0, int64(10*365*24*3600)).Map(func(offset int64) time.Time {
		return base.Add(time.Duration(offset) * time.Second)
	})

	properties.Property("hourly next is strictly future", prop.ForAll(
		func(now time.Time) bool {
			return Hourly().Next(now).After(now)
		},
		genNow,
	))

	properties.Property("daily next is strictly future and within a day", prop.ForAll(
		func(now time.Time, hour, minute int) bool {
			next := Daily(hour, minute).Next(now)
			return next.After(now) && next.Sub(now) <= 24*time.Hour
		},
		genNow,
		gen.IntRange(0, 23),
		gen.IntRange(0, 59),
	))

	properties.Property("weekly next is strictly future, on the right weekday, within a week", prop.ForAll(
		func(now time.Time, weekday, hour, minute int) bool {
			rule := Weekly(time.Weekday(weekday), hour, minute)
			next := rule.Next(now)
			return next.After(now) &&
				next.Weekday() == time.Weekday(weekday) &&
				next.Sub(now) <= 7*24*time.Hour
		},
		genNow,
		gen.IntRange(0, 6),
		gen.IntRange(0, 23),
		gen.IntRange(0, 59),
	))

	properties.Property("interval next is strictly future even for non-positive intervals", prop.ForAll(
		func(now time.Time, seconds int64) bool {
			return Every(time.Duration(seconds)*time.Second).Next(now).After(now)
		},
		genNow,
		gen.Int64Range(-3600, 3600),
	))

	properties.TestingRun(t)
}

// TestProperty_ParseRuleNeverPanicsAndAlwaysSchedules verifies that arbitrary
// config strings always yield a usable rule: parsing never panics and the
// resulting rule always produces a future occurrence.
func TestProperty_ParseRuleNeverPanicsAndAlwaysSchedules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("arbitrary strings yield a rule that schedules", prop.ForAll(
		func(s string) bool {
			rule := ParseRule(s)
			now := time.Now()
			return rule.Next(now).After(now)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
