package student

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reasons carried by FieldError.
const (
	ReasonRequired   = "required"
	ReasonNotNumeric = "not_numeric"
	ReasonOutOfRange = "out_of_range"
)

// ReportMode selects how many failing fields a ValidationError carries.
type ReportMode int

const (
	// ReportAll validates every field and reports each failure.
	ReportAll ReportMode = iota
	// ReportFirst stops at the first failing field in canonical order.
	ReportFirst
)

// ParseReportMode maps a config value ("all", "first") to a ReportMode.
// The empty string selects ReportAll.
func ParseReportMode(s string) (ReportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ReportAll, nil
	case "first":
		return ReportFirst, nil
	default:
		return ReportAll, fmt.Errorf("unknown validation report mode %q", s)
	}
}

func (m ReportMode) String() string {
	if m == ReportFirst {
		return "first"
	}
	return "all"
}

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Value   *int64 `json:"value,omitempty"`
	Bound   string `json:"bound,omitempty"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the failure for the named field, if any.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

// Validator coerces raw request values into Features.
type Validator struct {
	Mode ReportMode
}

// NewValidator returns a validator using the given report mode.
func NewValidator(mode ReportMode) *Validator {
	return &Validator{Mode: mode}
}

// Validate checks every field of raw independently. Unknown keys are
// ignored. On failure the returned error is a *ValidationError.
func (v *Validator) Validate(raw map[string]any) (Features, error) {
	var (
		out  Features
		errs []FieldError
	)
	for i, field := range Fields {
		n, ferr := checkField(field, raw)
		if ferr != nil {
			errs = append(errs, *ferr)
			if v.Mode == ReportFirst {
				break
			}
			continue
		}
		out.values[i] = n
	}
	if len(errs) > 0 {
		return Features{}, &ValidationError{Fields: errs}
	}
	return out, nil
}

func checkField(field Field, raw map[string]any) (int64, *FieldError) {
	value, ok := raw[field.Name]
	if !ok || value == nil {
		return 0, &FieldError{Field: field.Name, Reason: ReasonRequired, Message: "field required"}
	}
	n, ok := toInt(value)
	if !ok {
		return 0, &FieldError{Field: field.Name, Reason: ReasonNotNumeric, Message: "must be a numeric value"}
	}
	if !field.contains(n) {
		return 0, &FieldError{
			Field:   field.Name,
			Reason:  ReasonOutOfRange,
			Message: fmt.Sprintf("value %d is out of range, allowed %s", n, field.Bound()),
			Value:   &n,
			Bound:   field.Bound(),
		}
	}
	return n, nil
}

// toInt accepts integers, integer-valued floats and numeric strings.
func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		return stringToInt(v.String())
	case string:
		return stringToInt(v)
	default:
		return 0, false
	}
}

func stringToInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

// floatToInt rejects fractional, non-finite and out-of-range values.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
