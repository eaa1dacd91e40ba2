package model

import (
	"sort"
	"strings"
	"time"
)

// ValidationError reports invalid form fields, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(fe)}
}

// Validate checks the create payload: title, date and time are required,
// date must be YYYY-MM-DD and time HH:MM.
func (f Fields) Validate() error {
	fe := fieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		fe["title"] = "Title is required"
	}
	checkDate(fe, f.Date, true)
	checkTime(fe, f.Time, true)
	return fe.err()
}

// Validate checks only the fields present in the patch. A patch may not blank
// out a required field.
func (p Patch) Validate() error {
	fe := fieldErrors{}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		fe["title"] = "Title is required"
	}
	if p.Date != nil {
		checkDate(fe, *p.Date, true)
	}
	if p.Time != nil {
		checkTime(fe, *p.Time, true)
	}
	return fe.err()
}

func checkDate(fe fieldErrors, v string, required bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			fe["date"] = "Date is required"
		}
		return
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		fe["date"] = "Date must be YYYY-MM-DD"
	}
}

func checkTime(fe fieldErrors, v string, required bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			fe["time"] = "Time is required"
		}
		return
	}
	if len(v) != len(TimeLayout) {
		fe["time"] = "Time must be HH:MM"
		return
	}
	if _, err := time.Parse(TimeLayout, v); err != nil {
		fe["time"] = "Time must be HH:MM"
	}
}
