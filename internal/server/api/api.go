// Package api provides HTTP API handlers for the pose session.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gocv.io/x/gocv"

	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/session"
)

// Session is the part of a session the API drives.
type Session interface {
	Snapshot() session.Snapshot
	SwitchSource(spec session.SourceSpec) error
	SetEnabled(enabled bool)
	IsEnabled() bool
	Tuning() session.Tuning
	SetTuning(t session.Tuning)
	Frame() (gocv.Mat, detector.Pose, bool)
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// validate is the shared validator instance for request validation.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages instead of struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeAndValidate decodes the JSON body into data and validates it.
// Returns false if an error response was already sent.
func decodeAndValidate[T any](w http.ResponseWriter, r *http.Request, data *T) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}

	if err := validate.Struct(data); err != nil {
		writeValidationErrors(w, err)
		return false
	}
	return true
}

// writeValidationErrors converts validator errors to a 400 response.
func writeValidationErrors(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "Validation failed"}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			resp.Fields = append(resp.Fields, fieldError{
				Field:   e.Field(),
				Message: formatValidationMessage(e),
				Value:   e.Value(),
			})
		}
	} else {
		// Fallback for non-validation errors
		resp.Fields = append(resp.Fields, fieldError{Message: err.Error()})
	}

	writeJSON(w, http.StatusBadRequest, resp)
}

// formatValidationMessage creates a human-readable message from a validator error.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
