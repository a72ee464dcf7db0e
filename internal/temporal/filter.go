// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package temporal

import (
	"time"

	"github.com/duskrow/playafinder/internal/models"
)

// Filter applies temporal intent to an ordered candidate list, preserving
// the relative similarity rank. Constraints relax progressively until a
// non-empty result is found:
//
//  1. weekday AND time bucket both match one occurrence
//  2. weekday matches one occurrence (bucket ignored)
//  3. time bucket matches one occurrence (weekday ignored)
//  4. the original, unfiltered candidates
//
// A query therefore never degrades to zero results if any raw candidates
// existed. Candidates are returned unchanged when the intent carries no
// temporal constraint.
func Filter(candidates []models.Event, intent Intent) []models.Event {
	if len(candidates) == 0 {
		return candidates
	}

	if intent.HasWeekday() && intent.HasBucket() {
		if out := keep(candidates, func(ev *models.Event) bool {
			return matchesBoth(ev, *intent.Weekday, *intent.Bucket)
		}); len(out) > 0 {
			return out
		}
	}

	if intent.HasWeekday() {
		if out := keep(candidates, func(ev *models.Event) bool {
			return matchesWeekday(ev, *intent.Weekday)
		}); len(out) > 0 {
			return out
		}
	}

	if intent.HasBucket() {
		if out := keep(candidates, func(ev *models.Event) bool {
			return matchesBucket(ev, *intent.Bucket)
		}); len(out) > 0 {
			return out
		}
	}

	return candidates
}

// keep returns the candidates satisfying pred, in their original order.
func keep(candidates []models.Event, pred func(*models.Event) bool) []models.Event {
	var out []models.Event
	for i := range candidates {
		if pred(&candidates[i]) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// matchesBoth reports whether any single occurrence falls on the weekday AND
// starts within the bucket.
func matchesBoth(ev *models.Event, wd time.Weekday, bucket TimeBucket) bool {
	for _, occ := range ev.Times {
		date, ok := ParseDate(occ.Date)
		if !ok || date.Weekday() != wd {
			continue
		}
		if start, ok := ParseClock(occ.StartTime); ok && BucketForMinute(start) == bucket {
			return true
		}
	}
	return false
}

// matchesWeekday reports whether any occurrence falls on the weekday.
// The weekday is computed from the occurrence's calendar date; occurrences
// with unparseable dates never match.
func matchesWeekday(ev *models.Event, wd time.Weekday) bool {
	for _, occ := range ev.Times {
		if date, ok := ParseDate(occ.Date); ok && date.Weekday() == wd {
			return true
		}
	}
	return false
}

// matchesBucket reports whether any occurrence's start time falls within the
// bucket.
func matchesBucket(ev *models.Event, bucket TimeBucket) bool {
	for _, occ := range ev.Times {
		if start, ok := ParseClock(occ.StartTime); ok && BucketForMinute(start) == bucket {
			return true
		}
	}
	return false
}
