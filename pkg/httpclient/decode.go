package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Decode parses a successful JSON response into T and validates it.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if err := DecodeJSON(resp, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeJSON unmarshals resp.Body into out and enforces `validate` struct tags.
// Type mismatches are not coerced. Every failure is a KindValidation APIError.
func DecodeJSON(resp *Response, out any) error {
	if resp == nil {
		return &APIError{Kind: KindValidation, Err: errors.New("nil response")}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return newValidationError(resp, fmt.Errorf("decode json: %w", err), nil)
	}
	if err := validate.Struct(out); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// out is not a struct (map, slice); nothing to validate.
			return nil
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := fieldErrors(verrs)
			return newValidationError(resp, summarize(fields), fields)
		}
		return newValidationError(resp, err, nil)
	}
	return nil
}

func newValidationError(resp *Response, err error, fields []FieldError) *APIError {
	apiErr := &APIError{
		Kind:       KindValidation,
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Snippet:    snippet(resp.Body),
		Attempts:   resp.Attempts,
		Err:        err,
	}
	if len(fields) > 0 {
		apiErr.Detail = fields
	}
	return apiErr
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{
			Field:   fe.Namespace(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func summarize(fields []FieldError) error {
	if len(fields) == 1 {
		return errors.New(fields[0].Message)
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Errorf("%d fields invalid: %s", len(fields), strings.Join(msgs, "; "))
}
