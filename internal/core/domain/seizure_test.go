package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validInput() SeizureInput {
	return SeizureInput{
		Reference:  "REF-001",
		Location:   "Port of Montreal",
		SeizedOn:   "2025-01-01",
		ReportedOn: "2025-01-02",
		Substances: []SubstanceInput{
			{Name: "cocaine", Category: CategoryControlled, Amount: 1.5, Unit: UnitKilograms},
		},
	}
}

func TestSeizureInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *SeizureInput)
		wantErr error
	}{
		{"valid", func(in *SeizureInput) {}, nil},
		{"missing reference", func(in *SeizureInput) { in.Reference = "" }, ErrMissingArgument},
		{"missing location", func(in *SeizureInput) { in.Location = "" }, ErrMissingArgument},
		{"missing seized_on", func(in *SeizureInput) { in.SeizedOn = "" }, ErrMissingArgument},
		{"bad seized_on", func(in *SeizureInput) { in.SeizedOn = "01/01/2025" }, ErrInvalidArgument},
		{"impossible date", func(in *SeizureInput) { in.SeizedOn = "2025-13-01" }, ErrInvalidArgument},
		{"bad reported_on", func(in *SeizureInput) { in.ReportedOn = "2025-1-1" }, ErrInvalidArgument},
		{"no substances", func(in *SeizureInput) { in.Substances = nil }, ErrMissingArgument},
		{"unnamed substance", func(in *SeizureInput) { in.Substances[0].Name = "" }, ErrMissingArgument},
		{"unknown category", func(in *SeizureInput) { in.Substances[0].Category = "controlled" }, ErrInvalidArgument},
		{"unknown unit", func(in *SeizureInput) { in.Substances[0].Unit = "pounds" }, ErrInvalidArgument},
		{"zero amount", func(in *SeizureInput) { in.Substances[0].Amount = 0 }, ErrInvalidArgument},
		{"negative amount", func(in *SeizureInput) { in.Substances[0].Amount = -1 }, ErrInvalidArgument},
		{"NaN amount", func(in *SeizureInput) { in.Substances[0].Amount = math.NaN() }, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeizureInput_Normalize(t *testing.T) {
	in := validInput()
	in.Reference = "  REF-9  "
	in.ReportedOn = ""
	in.Normalize(time.Date(2025, 9, 16, 23, 0, 0, 0, time.UTC))

	if in.Reference != "REF-9" {
		t.Errorf("Reference = %q, want %q", in.Reference, "REF-9")
	}
	if in.ReportedOn != "2025-09-16" {
		t.Errorf("ReportedOn = %q, want 2025-09-16", in.ReportedOn)
	}
}

func TestCategoriesAndUnits(t *testing.T) {
	for _, c := range []string{"controlled substance", "precursors", "chemical offence-related property", "cannabis", "chemical property"} {
		if !IsValidCategory(c) {
			t.Errorf("IsValidCategory(%q) = false", c)
		}
	}
	for _, u := range []string{"capsules", "grams", "kilograms", "liters", "micrograms", "milligrams", "milliliters", "tablets"} {
		if !IsValidUnit(u) {
			t.Errorf("IsValidUnit(%q) = false", u)
		}
	}
	if IsValidUnit("Grams") {
		t.Error("units are case sensitive")
	}
}
