// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package temporal

import (
	"strings"
	"time"
	"unicode"
)

// Intent is the temporal intent extracted from a raw query. Either field may
// be nil; most queries carry no temporal intent at all.
type Intent struct {
	// Raw is the original query text.
	Raw string

	// Weekday is the requested day of the week, if one was recognized.
	Weekday *time.Weekday

	// Bucket is the requested time of day, if one was recognized.
	Bucket *TimeBucket
}

// HasWeekday reports whether a weekday was recognized.
func (in Intent) HasWeekday() bool { return in.Weekday != nil }

// HasBucket reports whether a time-of-day bucket was recognized.
func (in Intent) HasBucket() bool { return in.Bucket != nil }

// weekdayTokens maps whole-word tokens to weekdays. Whole-word matching
// avoids substring false positives ("sun" inside "sunny").
var weekdayTokens = map[string]time.Weekday{
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
}

// bucketTokens maps whole-word tokens to time-of-day buckets.
var bucketTokens = map[string]TimeBucket{
	"morning":   BucketMorning,
	"afternoon": BucketAfternoon,
	"evening":   BucketEvening,
	"night":     BucketNight,
	"latenight": BucketNight,
	"tonight":   BucketNight,
}

// bucketPhrases maps multi-word synonyms, checked before single tokens.
var bucketPhrases = map[string]TimeBucket{
	"late night": BucketNight,
}

// ParseIntent scans a raw query for weekday and time-of-day tokens.
// Matching is case-insensitive and whole-word; the first match in query
// order wins when several distinct values appear. A query with no temporal
// tokens yields an Intent with both fields nil, which is the common case.
func ParseIntent(raw string) Intent {
	intent := Intent{Raw: raw}
	lower := strings.ToLower(raw)

	for phrase, bucket := range bucketPhrases {
		if containsPhrase(lower, phrase) {
			b := bucket
			intent.Bucket = &b
			break
		}
	}

	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if intent.Weekday == nil {
			if wd, ok := weekdayTokens[token]; ok {
				w := wd
				intent.Weekday = &w
			}
		}
		if intent.Bucket == nil {
			if bucket, ok := bucketTokens[token]; ok {
				b := bucket
				intent.Bucket = &b
			}
		}
		if intent.Weekday != nil && intent.Bucket != nil {
			break
		}
	}

	return intent
}

// containsPhrase reports whether text contains phrase bounded by
// non-alphanumeric runes on both sides.
func containsPhrase(text, phrase string) bool {
	for from := 0; ; {
		idx := strings.Index(text[from:], phrase)
		if idx < 0 {
			return false
		}
		idx += from

		beforeOK := idx == 0 || !isWordRune(rune(text[idx-1]))
		end := idx + len(phrase)
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		from = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
