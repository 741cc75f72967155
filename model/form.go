package model

import (
	"fmt"
	"slices"
)

// FormData is the partial record accumulated across funnel steps.
// A nil scalar or a nil set means the field was never supplied; a
// non-nil empty set means it was supplied empty.
type FormData struct {
	PostalCode               *string  `json:"postalCode,omitempty"`
	Name                     *string  `json:"name,omitempty"`
	Email                    *string  `json:"email,omitempty"`
	Industry                 *string  `json:"industry,omitempty"`
	EducationLevel           *string  `json:"educationLevel,omitempty"`
	JobFunctionLevel         *string  `json:"jobFunctionLevel,omitempty"`
	CompanySize              *string  `json:"companySize,omitempty"`
	PrimaryGoal              []string `json:"primaryGoal"`
	ConnectionTypes          []string `json:"connectionTypes"`
	WorkEnvironment          []string `json:"workEnvironment"`
	CollaborationPreferences []string `json:"collaborationPreferences"`
	NetworkingWindow         []string `json:"networkingWindow"`
	DayOfWeek                []string `json:"dayOfWeek"`
	Experience               *string  `json:"experience,omitempty"`
	Communication            []string `json:"communication"`
	Interests                []string `json:"interests"`
	Challenges               []string `json:"challenges"`
	AdditionalInfo           *string  `json:"additionalInfo,omitempty"`
}

var scalarFields = map[string]func(*FormData) **string{
	"postalCode":       func(f *FormData) **string { return &f.PostalCode },
	"name":             func(f *FormData) **string { return &f.Name },
	"email":            func(f *FormData) **string { return &f.Email },
	"industry":         func(f *FormData) **string { return &f.Industry },
	"educationLevel":   func(f *FormData) **string { return &f.EducationLevel },
	"jobFunctionLevel": func(f *FormData) **string { return &f.JobFunctionLevel },
	"companySize":      func(f *FormData) **string { return &f.CompanySize },
	"experience":       func(f *FormData) **string { return &f.Experience },
	"additionalInfo":   func(f *FormData) **string { return &f.AdditionalInfo },
}

var setFields = map[string]func(*FormData) *[]string{
	"primaryGoal":              func(f *FormData) *[]string { return &f.PrimaryGoal },
	"connectionTypes":          func(f *FormData) *[]string { return &f.ConnectionTypes },
	"workEnvironment":          func(f *FormData) *[]string { return &f.WorkEnvironment },
	"collaborationPreferences": func(f *FormData) *[]string { return &f.CollaborationPreferences },
	"networkingWindow":         func(f *FormData) *[]string { return &f.NetworkingWindow },
	"dayOfWeek":                func(f *FormData) *[]string { return &f.DayOfWeek },
	"communication":            func(f *FormData) *[]string { return &f.Communication },
	"interests":                func(f *FormData) *[]string { return &f.Interests },
	"challenges":               func(f *FormData) *[]string { return &f.Challenges },
}

func IsScalarField(name string) bool {
	_, ok := scalarFields[name]
	return ok
}

func IsSetField(name string) bool {
	_, ok := setFields[name]
	return ok
}

// Merge returns f with every field present in partial overwritten.
// Fields absent from partial are left untouched.
func (f FormData) Merge(partial FormData) FormData {
	for _, ref := range scalarFields {
		if v := *ref(&partial); v != nil {
			s := *v
			*ref(&f) = &s
		}
	}
	for _, ref := range setFields {
		if v := *ref(&partial); v != nil {
			*ref(&f) = slices.Clone(v)
		}
	}
	return f
}

// Empty reports whether no field is present.
func (f FormData) Empty() bool {
	for _, ref := range scalarFields {
		if *ref(&f) != nil {
			return false
		}
	}
	for _, ref := range setFields {
		if *ref(&f) != nil {
			return false
		}
	}
	return true
}

// Scalar reports the value of a single-valued field and whether it is present.
func (f FormData) Scalar(name string) (string, bool) {
	ref, ok := scalarFields[name]
	if !ok {
		return "", false
	}
	v := *ref(&f)
	if v == nil {
		return "", false
	}
	return *v, true
}

// Set reports the value of a multi-valued field and whether it is present.
func (f FormData) Set(name string) ([]string, bool) {
	ref, ok := setFields[name]
	if !ok {
		return nil, false
	}
	v := *ref(&f)
	return v, v != nil
}

func (f *FormData) SetScalar(name, value string) error {
	ref, ok := scalarFields[name]
	if !ok {
		return fmt.Errorf("unknown single-valued field %q", name)
	}
	*ref(f) = &value
	return nil
}

func (f *FormData) SetSet(name string, values []string) error {
	ref, ok := setFields[name]
	if !ok {
		return fmt.Errorf("unknown multi-valued field %q", name)
	}
	if values == nil {
		values = []string{}
	}
	*ref(f) = slices.Clone(values)
	return nil
}

// String returns a pointer to s, for building partial records.
func String(s string) *string {
	return &s
}

// Value dereferences p, treating nil as the empty string.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
