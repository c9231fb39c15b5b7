// Package student holds the input features accepted by the pass/fail
// classifier and the rules used to validate them.
package student

import "fmt"

// NoUpperBound marks a field whose range is open above.
const NoUpperBound = -1

// Field describes one input attribute and its closed range.
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Min         int    `json:"min"`
	Max         int    `json:"-"`
}

// HasMax reports whether the field is bounded above.
func (f Field) HasMax() bool {
	return f.Max != NoUpperBound
}

// Bound renders the allowed range, e.g. "15..22" or "0.. (no upper limit)".
func (f Field) Bound() string {
	if !f.HasMax() {
		return fmt.Sprintf("%d.. (no upper limit)", f.Min)
	}
	return fmt.Sprintf("%d..%d", f.Min, f.Max)
}

func (f Field) contains(v int64) bool {
	if v < int64(f.Min) {
		return false
	}
	return !f.HasMax() || v <= int64(f.Max)
}

// Fields is the canonical feature order. The classifier binds by position,
// so this order must never change.
var Fields = [...]Field{
	{Name: "sex", Description: "Student's sex (0 or 1)", Min: 0, Max: 1},
	{Name: "age", Description: "Student's age (15-22)", Min: 15, Max: 22},
	{Name: "Medu", Description: "Mother's education (0-4)", Min: 0, Max: 4},
	{Name: "Fedu", Description: "Father's education (0-4)", Min: 0, Max: 4},
	{Name: "famrel", Description: "Quality of family relationships (1-5)", Min: 1, Max: 5},
	{Name: "freetime", Description: "Free time after school (1-5)", Min: 1, Max: 5},
	{Name: "goout", Description: "Going out with friends (1-5)", Min: 1, Max: 5},
	{Name: "Dalc", Description: "Workday alcohol consumption (1-5)", Min: 1, Max: 5},
	{Name: "Walc", Description: "Weekend alcohol consumption (1-5)", Min: 1, Max: 5},
	{Name: "health", Description: "Current health status (1-5)", Min: 1, Max: 5},
	{Name: "absences", Description: "Number of school absences", Min: 0, Max: NoUpperBound},
}

// NumFeatures is the length of every feature vector.
const NumFeatures = len(Fields)

// FieldByName looks a field up by its wire name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Features is a validated set of inputs in canonical order. The zero value
// is not valid; obtain one from Validator.Validate.
type Features struct {
	values [NumFeatures]int64
}

// Get returns the value of the named field.
func (f Features) Get(name string) (int64, bool) {
	for i, field := range Fields {
		if field.Name == name {
			return f.values[i], true
		}
	}
	return 0, false
}

// Values returns a copy of the inputs in canonical order.
func (f Features) Values() [NumFeatures]int64 {
	return f.values
}

// Vector builds the classifier input in canonical field order.
func (f Features) Vector() []float64 {
	vec := make([]float64, NumFeatures)
	for i, v := range f.values {
		vec[i] = float64(v)
	}
	return vec
}

// Map returns the features keyed by field name.
func (f Features) Map() map[string]int64 {
	out := make(map[string]int64, NumFeatures)
	for i, field := range Fields {
		out[field.Name] = f.values[i]
	}
	return out
}

// Example is the sample payload published by the schema endpoint.
func Example() map[string]int {
	return map[string]int{
		"sex":      0,
		"age":      17,
		"Medu":     3,
		"Fedu":     3,
		"famrel":   4,
		"freetime": 3,
		"goout":    2,
		"Dalc":     1,
		"Walc":     2,
		"health":   4,
		"absences": 4,
	}
}
