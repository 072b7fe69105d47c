package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

func WriteJSON(w http.ResponseWriter, payload any, code int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(payload)
}

func DecodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// FieldError names a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error envelope of both services.
type ErrorResponse struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

func WriteError(w http.ResponseWriter, message string, code int) error {
	return WriteJSON(w, ErrorResponse{Status: code, Message: message}, code)
}

// WriteValidationError renders validator failures as a 400 with one entry per
// offending field.
func WriteValidationError(w http.ResponseWriter, err error) error {
	res := ErrorResponse{
		Status:  http.StatusBadRequest,
		Message: "Invalid input data",
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			res.Errors = append(res.Errors, FieldError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}

	return WriteJSON(w, res, http.StatusBadRequest)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "gt", "min":
		return "must be greater than " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
