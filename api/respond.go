package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/c360studio/semview/service"
)

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// writeServiceError maps a service error onto a status and error code.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	writeJSONError(w, status, code, err.Error())
}

var codeStatus = map[string]int{
	service.CodeSyntax:              http.StatusUnprocessableEntity,
	service.CodeNotFound:            http.StatusNotFound,
	service.CodeNodeNotFound:        http.StatusNotFound,
	service.CodeFingerprintMismatch: http.StatusConflict,
	service.CodeUnsupportedFormat:   http.StatusBadRequest,
	service.CodeBlockedURL:          http.StatusBadRequest,
	service.CodeTooLarge:            http.StatusRequestEntityTooLarge,
	service.CodeSourceUnavailable:   http.StatusBadGateway,
	service.CodeUnsupportedType:     http.StatusUnsupportedMediaType,
}

func classifyError(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, service.CodeTooLarge
	}
	code := service.Code(err)
	if status, ok := codeStatus[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, code
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
