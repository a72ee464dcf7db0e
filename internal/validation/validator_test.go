// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package validation

import (
	"strings"
	"testing"

	"github.com/duskrow/playafinder/internal/models"
)

func TestValidateRecommendationRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RecommendationRequest
		wantErr bool
		wantMsg string
	}{
		{
			name: "valid request",
			req:  models.RecommendationRequest{Query: "deep house", MaxResults: 5},
		},
		{
			name: "zero max_results allowed",
			req:  models.RecommendationRequest{Query: "yoga"},
		},
		{
			name:    "missing query",
			req:     models.RecommendationRequest{MaxResults: 5},
			wantErr: true,
			wantMsg: "required",
		},
		{
			name:    "max_results above cap",
			req:     models.RecommendationRequest{Query: "art", MaxResults: 51},
			wantErr: true,
			wantMsg: "at most 50",
		},
		{
			name:    "negative max_results",
			req:     models.RecommendationRequest{Query: "art", MaxResults: -1},
			wantErr: true,
			wantMsg: "at least 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ValidateStruct() = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateStruct() error = %v", err)
			}
		})
	}
}

func TestCustomEventFormatRules(t *testing.T) {
	type eventTime struct {
		Date  string `validate:"usdate"`
		Start string `validate:"clock"`
	}

	tests := []struct {
		name    string
		value   eventTime
		wantErr bool
	}{
		{"valid", eventTime{Date: "08/28/2025", Start: "22:00"}, false},
		{"midnight", eventTime{Date: "08/31/2025", Start: "00:00"}, false},
		{"bad clock", eventTime{Date: "08/28/2025", Start: "25:00"}, true},
		{"iso date rejected", eventTime{Date: "2025-08-28", Start: "22:00"}, true},
		{"missing minutes", eventTime{Date: "08/28/2025", Start: "22"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error has field details", func(t *testing.T) {
		req := models.RecommendationRequest{MaxResults: 5}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("expected validation error")
		}

		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Details["field"] != "Query" {
			t.Errorf("Details[field] = %v, want Query", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors list all fields", func(t *testing.T) {
		req := models.RecommendationRequest{MaxResults: 99}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if len(err.Errors()) != 2 {
			t.Fatalf("got %d errors, want 2", len(err.Errors()))
		}

		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok {
			t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
		}
		if len(fields) != 2 {
			t.Errorf("got %d field entries, want 2", len(fields))
		}
	})
}
