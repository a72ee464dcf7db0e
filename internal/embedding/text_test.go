// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package embedding

import (
	"strings"
	"testing"

	"github.com/duskrow/playafinder/internal/models"
)

func TestBuildEventText(t *testing.T) {
	ev := models.Event{
		ID:          "ev-1",
		Title:       "Sunset Sound Bath",
		Type:        "Music/Party",
		Camp:        "Dusty Beats",
		Description: "Ambient sets as the sun goes down.",
		Times: []models.EventTime{
			{Date: "08/28/2025", StartTime: "18:00", EndTime: "22:00"}, // Thursday evening into night
			{Date: "08/29/2025", StartTime: "21:30", EndTime: "23:30"}, // Friday night
		},
	}

	text := BuildEventText(&ev)

	for _, want := range []string{
		"Title: Sunset Sound Bath",
		"Type: Music/Party",
		"Camp: Dusty Beats",
		"Ambient sets as the sun goes down.",
		"Days: Thursday, Friday",
		"Times: evening, night",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("BuildEventText missing %q in %q", want, text)
		}
	}
}

func TestBuildEventTextDeterministic(t *testing.T) {
	ev := models.Event{
		ID:   "ev-2",
		Type: "Class/Workshop",
		Camp: "Camp Question Mark",
		Times: []models.EventTime{
			{Date: "08/31/2025", StartTime: "10:00", EndTime: "12:00"},
			{Date: "08/25/2025", StartTime: "02:00", EndTime: "04:00"},
		},
	}

	first := BuildEventText(&ev)
	for i := 0; i < 10; i++ {
		if got := BuildEventText(&ev); got != first {
			t.Fatalf("BuildEventText not deterministic: %q vs %q", got, first)
		}
	}

	// Monday-first ordering regardless of occurrence order in the record.
	if !strings.Contains(first, "Days: Monday, Sunday") {
		t.Errorf("weekday summary order wrong: %q", first)
	}
}

func TestBuildEventTextEdgeCases(t *testing.T) {
	t.Run("missing title omitted", func(t *testing.T) {
		ev := models.Event{Type: "Care/Support", Camp: "Oasis"}
		text := BuildEventText(&ev)
		if strings.Contains(text, "Title:") {
			t.Errorf("empty title rendered: %q", text)
		}
		if !strings.HasPrefix(text, "Type: Care/Support") {
			t.Errorf("unexpected prefix: %q", text)
		}
	})

	t.Run("no parseable occurrences drops summaries", func(t *testing.T) {
		ev := models.Event{
			Type: "Other",
			Camp: "Nowhere",
			Times: []models.EventTime{
				{Date: "soon", StartTime: "sometime", EndTime: "later"},
			},
		}
		text := BuildEventText(&ev)
		if strings.Contains(text, "Days:") || strings.Contains(text, "Times:") {
			t.Errorf("summaries rendered from unparseable occurrences: %q", text)
		}
	})

	t.Run("wrap past midnight yields night", func(t *testing.T) {
		ev := models.Event{
			Type: "Music/Party",
			Camp: "Insomnia",
			Times: []models.EventTime{
				{Date: "08/29/2025", StartTime: "23:00", EndTime: "03:00"},
			},
		}
		text := BuildEventText(&ev)
		if !strings.Contains(text, "Times: night") {
			t.Errorf("wrap-past-midnight occurrence should summarize as night: %q", text)
		}
	})
}
