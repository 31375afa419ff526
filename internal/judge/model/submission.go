package model

import (
	"errors"
	"sort"

	appErr "codeduel/pkg/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SubmissionRequest is one submission judged against one test case.
type SubmissionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	// Input and Expected are serialized values.
	Input    string `json:"input"`
	Expected string `json:"expected"`
	// ProblemType names the argument-adaptation archetype. Empty means generic.
	ProblemType    string `json:"problemType,omitempty"`
	OrderSensitive bool   `json:"orderSensitive,omitempty"`
}

// Validate checks required fields.
func (r SubmissionRequest) Validate() error {
	return toAppError(validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required),
		validation.Field(&r.Language, validation.Required),
		validation.Field(&r.Input, validation.Required),
		validation.Field(&r.Expected, validation.Required),
	))
}

// ProblemRequest judges a submission against every test case of a problem.
type ProblemRequest struct {
	ProblemID     string `json:"-"`
	Code          string `json:"code"`
	Language      string `json:"language"`
	IncludeHidden bool   `json:"includeHidden"`
}

// Validate checks required fields.
func (r ProblemRequest) Validate() error {
	return toAppError(validation.ValidateStruct(&r,
		validation.Field(&r.ProblemID, validation.Required),
		validation.Field(&r.Code, validation.Required),
		validation.Field(&r.Language, validation.Required),
	))
}

// CompareRequest asks for a direct equivalence check of two serialized values.
type CompareRequest struct {
	Expected       string `json:"expected"`
	Actual         string `json:"actual"`
	OrderSensitive bool   `json:"orderSensitive"`
}

// Validate checks required fields.
func (r CompareRequest) Validate() error {
	return toAppError(validation.ValidateStruct(&r,
		validation.Field(&r.Expected, validation.Required),
	))
}

// CompareResponse is the outcome of a CompareRequest.
type CompareResponse struct {
	Equal bool `json:"equal"`
}

// toAppError turns ozzo field errors into a validation error naming the
// first failing field.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErr.Wrap(err, appErr.ValidationFailed)
	}
	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	first := fields[0]
	return appErr.ValidationError(first, fieldErrs[first].Error()).WithDetail("fields", fields)
}
