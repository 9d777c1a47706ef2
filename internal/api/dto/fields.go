package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cuongbtq/job-scheduling/internal/domain"
)

// Fields is a JSON object read field by field, so that every bad field is
// reported instead of only the first one
type Fields struct {
	raw  map[string]json.RawMessage
	verr *domain.ValidationError
}

// ParseFields decodes body as a JSON object
func ParseFields(body []byte) (*Fields, error) {
	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.NewValidationError("body", "must be a JSON object")
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewValidationError("body", "must be a JSON object")
	}
	return &Fields{raw: raw, verr: &domain.ValidationError{}}, nil
}

// Err returns the collected violations, or nil
func (f *Fields) Err() error { return f.verr.Err() }

func (f *Fields) lookup(name string) (json.RawMessage, bool) {
	v, ok := f.raw[name]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// Has reports whether name is present and not null
func (f *Fields) Has(name string) bool {
	_, ok := f.lookup(name)
	return ok
}

// String reads a required non-blank string
func (f *Fields) String(name string) string {
	v, ok := f.lookup(name)
	if !ok {
		f.verr.Add(name, "is required")
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		f.verr.Add(name, "must be a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		f.verr.Add(name, "is required")
	}
	return s
}

// Number reads a number, also accepting its decimal string form
func (f *Fields) Number(name string) (float64, bool) {
	v, ok := f.lookup(name)
	if !ok {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			return parsed, true
		}
	}
	f.verr.Add(name, "must be a number")
	return 0, false
}

// RequiredNumber is Number for a field that must be present
func (f *Fields) RequiredNumber(name string) float64 {
	if !f.Has(name) {
		f.verr.Add(name, "is required")
		return 0
	}
	n, _ := f.Number(name)
	return n
}

// OptionalNumber returns nil when the field is absent
func (f *Fields) OptionalNumber(name string) *float64 {
	n, ok := f.Number(name)
	if !ok {
		return nil
	}
	return &n
}

// ID reads a required positive integer id
func (f *Fields) ID(name string) int64 {
	if !f.Has(name) {
		f.verr.Add(name, "is required")
		return 0
	}
	n, ok := f.Number(name)
	if !ok {
		return 0
	}
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold
	if n != math.Trunc(n) || n <= 0 || n >= 1<<63 {
		f.verr.Add(name, fmt.Sprintf("must be a positive integer, got %v", n))
		return 0
	}
	return int64(n)
}

// Date reads a required YYYY-MM-DD date
func (f *Fields) Date(name string) domain.Date {
	s := f.String(name)
	if s == "" {
		return domain.Date{}
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		f.verr.Add(name, "must be a date in YYYY-MM-DD format")
		return domain.Date{}
	}
	return d
}
