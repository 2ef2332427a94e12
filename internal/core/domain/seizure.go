package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for seizure dates.
const DateLayout = "2006-01-02"

// Substance categories.
const (
	CategoryControlled       = "controlled substance"
	CategoryPrecursors       = "precursors"
	CategoryOffenceProperty  = "chemical offence-related property"
	CategoryCannabis         = "cannabis"
	CategoryChemicalProperty = "chemical property"
)

// Measurement units.
const (
	UnitCapsules    = "capsules"
	UnitGrams       = "grams"
	UnitKilograms   = "kilograms"
	UnitLiters      = "liters"
	UnitMicrograms  = "micrograms"
	UnitMilligrams  = "milligrams"
	UnitMilliliters = "milliliters"
	UnitTablets     = "tablets"
)

var validCategories = map[string]struct{}{
	CategoryControlled:       {},
	CategoryPrecursors:       {},
	CategoryOffenceProperty:  {},
	CategoryCannabis:         {},
	CategoryChemicalProperty: {},
}

var validUnits = map[string]struct{}{
	UnitCapsules:    {},
	UnitGrams:       {},
	UnitKilograms:   {},
	UnitLiters:      {},
	UnitMicrograms:  {},
	UnitMilligrams:  {},
	UnitMilliliters: {},
	UnitTablets:     {},
}

// IsValidCategory reports whether c is a known substance category.
func IsValidCategory(c string) bool {
	_, ok := validCategories[c]
	return ok
}

// IsValidUnit reports whether u is a known measurement unit.
func IsValidUnit(u string) bool {
	_, ok := validUnits[u]
	return ok
}

// Substance is one seized item within a seizure record.
type Substance struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	SeizureID int64   `json:"seizure_id"`
}

// Seizure is a reported seizure with the substances it contained.
//
// SeizedOn and ReportedOn are calendar dates in DateLayout form.
type Seizure struct {
	ID         int64       `json:"id"`
	Reference  string      `json:"reference"`
	Location   string      `json:"location"`
	SeizedOn   string      `json:"seized_on"`
	ReportedOn string      `json:"reported_on"`
	UserID     int64       `json:"user_id"`
	Substances []Substance `json:"substances"`
}

// SubstanceInput is the caller-supplied part of a Substance.
type SubstanceInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

// SeizureInput is the caller-supplied part of a Seizure.
// An empty ReportedOn defaults to the current date.
type SeizureInput struct {
	Reference  string           `json:"reference"`
	Location   string           `json:"location"`
	SeizedOn   string           `json:"seized_on"`
	ReportedOn string           `json:"reported_on,omitempty"`
	Substances []SubstanceInput `json:"substances"`
}

// Normalize trims whitespace and fills ReportedOn from now when it is empty.
func (in *SeizureInput) Normalize(now time.Time) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.Location = strings.TrimSpace(in.Location)
	in.SeizedOn = strings.TrimSpace(in.SeizedOn)
	in.ReportedOn = strings.TrimSpace(in.ReportedOn)
	if in.ReportedOn == "" {
		in.ReportedOn = now.UTC().Format(DateLayout)
	}
	for i := range in.Substances {
		in.Substances[i].Name = strings.TrimSpace(in.Substances[i].Name)
	}
}

// Validate checks the input and returns ErrMissingArgument or ErrInvalidArgument
// with the offending field in Details.
func (in *SeizureInput) Validate() error {
	if in.Reference == "" {
		return ErrMissingArgument.WithDetails("reference")
	}
	if in.Location == "" {
		return ErrMissingArgument.WithDetails("location")
	}
	if err := ValidateDate("seized_on", in.SeizedOn); err != nil {
		return err
	}
	if err := ValidateDate("reported_on", in.ReportedOn); err != nil {
		return err
	}
	if len(in.Substances) == 0 {
		return ErrMissingArgument.WithDetails("substances")
	}
	for i, s := range in.Substances {
		field := fmt.Sprintf("substances[%d]", i)
		switch {
		case s.Name == "":
			return ErrMissingArgument.WithDetails(field + ".name")
		case !IsValidCategory(s.Category):
			return ErrInvalidArgument.WithDetails(field + ".category")
		case !IsValidUnit(s.Unit):
			return ErrInvalidArgument.WithDetails(field + ".unit")
		case math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) || s.Amount <= 0:
			return ErrInvalidArgument.WithDetails(field + ".amount must be greater than 0")
		}
	}
	return nil
}

// ValidateDate checks that value is a YYYY-MM-DD calendar date.
func ValidateDate(field, value string) error {
	if value == "" {
		return ErrMissingArgument.WithDetails(field)
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ErrInvalidArgument.WithDetails(field + " must be YYYY-MM-DD")
	}
	return nil
}

// SummaryRow is the total amount of one substance seized in one month.
type SummaryRow struct {
	Month     string  `json:"month"` // MM-YYYY
	Substance string  `json:"substance"`
	Total     float64 `json:"total"`
}
