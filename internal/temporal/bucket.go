// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package temporal implements the time-awareness of the recommendation
// pipeline: the fixed time-of-day buckets, extraction of weekday and
// time-of-day intent from free-text queries, and the progressive candidate
// filter that applies that intent without ever degrading a query to zero
// results.
package temporal

import (
	"strconv"
	"strings"
	"time"
)

// TimeBucket is one of the four fixed partitions of the 24-hour clock.
type TimeBucket int

const (
	// BucketMorning covers 05:00-11:59.
	BucketMorning TimeBucket = iota
	// BucketAfternoon covers 12:00-16:59.
	BucketAfternoon
	// BucketEvening covers 17:00-20:59.
	BucketEvening
	// BucketNight covers 21:00-04:59 and wraps midnight.
	BucketNight
)

// Bucket boundaries in minutes since midnight (start inclusive, end exclusive).
const (
	morningStart   = 5 * 60  // 05:00
	afternoonStart = 12 * 60 // 12:00
	eveningStart   = 17 * 60 // 17:00
	nightStart     = 21 * 60 // 21:00
	dayMinutes     = 24 * 60
)

// String returns the lowercase bucket name used in embedding text and logs.
func (b TimeBucket) String() string {
	switch b {
	case BucketMorning:
		return "morning"
	case BucketAfternoon:
		return "afternoon"
	case BucketEvening:
		return "evening"
	case BucketNight:
		return "night"
	default:
		return "unknown"
	}
}

// BucketForMinute classifies a clock time (minutes since midnight) into its
// bucket. Minutes past 21:00 or before 05:00 belong to night.
func BucketForMinute(minute int) TimeBucket {
	switch {
	case minute >= nightStart || minute < morningStart:
		return BucketNight
	case minute < afternoonStart:
		return BucketMorning
	case minute < eveningStart:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}

// BucketsForSpan returns the buckets a start..end span overlaps, in fixed
// morning-to-night order. Spans whose end precedes their start wrap past
// midnight and are split into two segments before the overlap test.
// interval is a half-open [lo, hi) range of minutes since midnight.
type interval struct{ lo, hi int }

func BucketsForSpan(start, end int) []TimeBucket {
	segments := []interval{{start, end}}
	if end < start {
		segments = []interval{{start, dayMinutes}, {0, end}}
	}

	ranges := []struct {
		bucket TimeBucket
		spans  []interval
	}{
		{BucketMorning, []interval{{morningStart, afternoonStart}}},
		{BucketAfternoon, []interval{{afternoonStart, eveningStart}}},
		{BucketEvening, []interval{{eveningStart, nightStart}}},
		{BucketNight, []interval{{nightStart, dayMinutes}, {0, morningStart}}},
	}

	var found []TimeBucket
	for _, r := range ranges {
		for _, bs := range r.spans {
			if overlapsAny(segments, bs.lo, bs.hi) {
				found = append(found, r.bucket)
				break
			}
		}
	}
	return found
}

func overlapsAny(segments []interval, lo, hi int) bool {
	for _, s := range segments {
		if s.lo < hi && s.hi > lo {
			return true
		}
	}
	return false
}

// ParseClock parses an "HH:MM" 24-hour time into minutes since midnight.
// The second return value reports whether the input was well-formed.
func ParseClock(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// ParseDate parses an "MM/DD/YYYY" calendar date. The second return value
// reports whether the input was well-formed.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse("01/02/2006", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
