// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package validation runs go-playground/validator v10 over request structs.
// Fields are reported by their JSON names and the custom business_id tag
// checks id shape before any store lookup.
//
//	type DashboardRequest struct {
//	    BusinessID string `json:"business_id" validate:"required,business_id"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrCodeValidation is the API error code for failed validation.
const ErrCodeValidation = "VALIDATION_FAILED"

// Yelp ids are 22 URL-safe base64 characters; other sources differ in length.
var businessIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var shared = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("business_id", func(fl validator.FieldLevel) bool {
		return ValidBusinessID(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register business_id: %v", err))
	}
	return v
})

// GetValidator returns the process-wide validator.
func GetValidator() *validator.Validate { return shared() }

// ValidBusinessID reports whether id is a well-formed business id.
func ValidBusinessID(id string) bool {
	return businessIDPattern.MatchString(id)
}

// FieldError is one rejected field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError lists the rejected fields of one request in
// declaration order.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors the API error body without importing the api package.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError flattens the failure for the response envelope. A single field
// is reported inline; several go under details.fields.
func (e *RequestValidationError) ToAPIError() *APIError {
	out := &APIError{Code: ErrCodeValidation, Message: "Validation failed"}
	switch len(e.Fields) {
	case 0:
	case 1:
		f := e.Fields[0]
		out.Message = f.Message
		out.Details = map[string]any{"field": f.Field, "tag": f.Tag}
	default:
		fields := make([]map[string]any, len(e.Fields))
		msgs := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = map[string]any{"field": f.Field, "tag": f.Tag, "message": f.Message}
			msgs[i] = f.Field + ": " + f.Message
		}
		out.Message = strings.Join(msgs, "; ")
		out.Details = map[string]any{"fields": fields}
	}
	return out
}

// ValidateStruct returns nil when s passes every rule.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := &RequestValidationError{Fields: make([]FieldError, len(fes))}
	for i, fe := range fes {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param(), Message: describe(fe)}
	}
	return out
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "business_id":
		return field + " must be 1-64 letters, digits, '-' or '_'"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
