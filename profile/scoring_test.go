package profile_test

import (
	"math"
	"slices"
	"testing"

	"github.com/garygangwu/tax-copilot/profile"
)

func fullData() map[string]any {
	return map[string]any{
		"basic_info": map[string]any{"filing_status": "mfj", "state": "CA"},
		"income":     map[string]any{"total_income": 120000, "w2_count": 2, "ira_contribution": 6000},
		"deductions": map[string]any{"student_loan_interest": 2500, "itemized": false},
		"dependents": map[string]any{"count": 2, "ages": []any{float64(4), float64(9)}},
	}
}

func TestCompleteness_Bounds(t *testing.T) {
	if got := profile.Completeness(map[string]any{}); got != 0 {
		t.Errorf("Completeness(empty) = %v, want 0", got)
	}
	if got := profile.Completeness(nil); got != 0 {
		t.Errorf("Completeness(nil) = %v, want 0", got)
	}
	if got := profile.Completeness(fullData()); math.Abs(got-1) > 1e-9 {
		t.Errorf("Completeness(full) = %v, want 1", got)
	}
}

func TestCompleteness_Weights(t *testing.T) {
	requiredOnly := map[string]any{
		"basic_info": map[string]any{"filing_status": "single"},
		"income":     map[string]any{"total_income": 1, "w2_count": 1},
	}
	if got := profile.Completeness(requiredOnly); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Completeness(required only) = %v, want 0.7", got)
	}

	nullValue := map[string]any{"basic_info": map[string]any{"filing_status": nil}}
	if got := profile.Completeness(nullValue); got != 0 {
		t.Errorf("Completeness(null field) = %v, want 0", got)
	}

	partial := map[string]any{"basic_info": map[string]any{"filing_status": "single", "state": "WA"}}
	want := 0.7/3 + 0.3/5
	if got := profile.Completeness(partial); math.Abs(got-want) > 1e-9 {
		t.Errorf("Completeness(partial) = %v, want %v", got, want)
	}
	if got := profile.Completeness(partial); got < 0 || got > 1 {
		t.Errorf("Completeness out of bounds: %v", got)
	}
}

func TestMissingFields(t *testing.T) {
	got := profile.MissingFields(map[string]any{
		"income": map[string]any{"total_income": 50000},
	})
	want := []string{"basic_info.filing_status", "income.w2_count"}
	if !slices.Equal(got, want) {
		t.Errorf("MissingFields() = %v, want %v", got, want)
	}
	if got := profile.MissingFields(fullData()); len(got) != 0 {
		t.Errorf("MissingFields(full) = %v, want none", got)
	}
}

func TestConfidenceScores(t *testing.T) {
	scores := profile.ConfidenceScores(fullData())

	want := map[string]float64{
		"basic_info.filing_status":         0.9,
		"basic_info.state":                 0.9,
		"income.total_income":              0.95,
		"income.w2_count":                  0.95,
		"income.ira_contribution":          0.85,
		"deductions.student_loan_interest": 0.85,
		"deductions.itemized":              0.9,
		"dependents.count":                 0.9,
		"dependents.ages":                  0.85,
	}
	for path, w := range want {
		if scores[path] != w {
			t.Errorf("scores[%s] = %v, want %v", path, scores[path], w)
		}
	}
	for path, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("scores[%s] = %v out of range", path, s)
		}
	}
}

func TestConfidenceScores_HedgedAndAbsent(t *testing.T) {
	plain := profile.ConfidenceScores(map[string]any{"income": map[string]any{"total_income": "$2,000"}})
	hedged := profile.ConfidenceScores(map[string]any{"income": map[string]any{"total_income": "around $2,000"}})

	if hedged["income.total_income"] >= plain["income.total_income"] {
		t.Errorf("hedged %v should score below plain %v", hedged["income.total_income"], plain["income.total_income"])
	}
	if hedged["income.total_income"] != 0.7 {
		t.Errorf("hedged score = %v, want 0.7", hedged["income.total_income"])
	}

	if _, ok := plain["basic_info.filing_status"]; ok {
		t.Error("absent field should have no score entry")
	}
	if len(profile.ConfidenceScores(map[string]any{})) != 0 {
		t.Error("empty data should have no scores")
	}
}
