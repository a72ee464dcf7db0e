// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package embedding produces embedding vectors for event texts and queries.
//
// It has two halves: a pure text builder that renders the canonical
// embedding text of an event, and an HTTP client for an OpenAI-compatible
// embeddings endpoint. The same builder output is used by the offline batch
// job (cmd/embedgen) and must therefore stay deterministic; changing it
// invalidates every stored vector.
package embedding

import (
	"strings"
	"time"

	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/temporal"
)

// weekdayOrder fixes the rendering order of the weekday summary
// (Monday-first, matching the festival week).
var weekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// bucketOrder fixes the rendering order of the time-of-day summary.
var bucketOrder = []temporal.TimeBucket{
	temporal.BucketMorning,
	temporal.BucketAfternoon,
	temporal.BucketEvening,
	temporal.BucketNight,
}

// BuildEventText composes the canonical text representation of an event for
// embedding: title, type, camp, description, then a human-readable summary
// of the union of weekdays and time buckets across all occurrences, e.g.
//
//	Days: Thursday, Friday. Times: evening, night
//
// The output is a pure function of the event's fields. Queries are NOT
// passed through this builder; they are embedded verbatim.
func BuildEventText(ev *models.Event) string {
	parts := make([]string, 0, 6)

	if ev.Title != "" {
		parts = append(parts, "Title: "+ev.Title)
	}
	parts = append(parts, "Type: "+ev.Type)
	parts = append(parts, "Camp: "+ev.Camp)
	if ev.Description != "" {
		parts = append(parts, ev.Description)
	}

	if days := summarizeWeekdays(ev.Times); len(days) > 0 {
		parts = append(parts, "Days: "+strings.Join(days, ", "))
	}
	if buckets := summarizeBuckets(ev.Times); len(buckets) > 0 {
		parts = append(parts, "Times: "+strings.Join(buckets, ", "))
	}

	return strings.TrimSpace(strings.Join(parts, ". "))
}

// summarizeWeekdays returns the distinct weekday names implied by the
// occurrences, Monday first. Occurrences with unparseable dates are skipped.
func summarizeWeekdays(times []models.EventTime) []string {
	seen := make(map[time.Weekday]bool, len(times))
	for _, occ := range times {
		if date, ok := temporal.ParseDate(occ.Date); ok {
			seen[date.Weekday()] = true
		}
	}

	var out []string
	for _, wd := range weekdayOrder {
		if seen[wd] {
			out = append(out, wd.String())
		}
	}
	return out
}

// summarizeBuckets returns the distinct time-of-day bucket names the
// occurrences overlap, morning first. An occurrence spans every bucket its
// start..end interval touches; wrap-past-midnight spans are handled by the
// overlap computation. Occurrences with unparseable times are skipped.
func summarizeBuckets(times []models.EventTime) []string {
	seen := make(map[temporal.TimeBucket]bool, 4)
	for _, occ := range times {
		start, okStart := temporal.ParseClock(occ.StartTime)
		end, okEnd := temporal.ParseClock(occ.EndTime)
		if !okStart || !okEnd {
			continue
		}
		for _, b := range temporal.BucketsForSpan(start, end) {
			seen[b] = true
		}
	}

	var out []string
	for _, b := range bucketOrder {
		if seen[b] {
			out = append(out, b.String())
		}
	}
	return out
}
