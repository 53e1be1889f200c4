package types

import (
	"errors"
	"net/http"

	appErr "github.com/fusecms/engine/pkg/errors"
)

// FromError converts any engine error into a wire APIError.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var violations appErr.ViolationList
	if errors.As(err, &violations) {
		return &APIError{Code: "constraint_violation", Message: "relation constraints violated", Violations: violations}
	}
	var fields appErr.ValidationErrorList
	if errors.As(err, &fields) {
		return &APIError{Code: "validation_error", Message: "definition validation failed", Fields: fields}
	}
	var inUse *appErr.DefinitionInUseError
	if errors.As(err, &inUse) {
		return &APIError{Code: "definition_in_use", Message: inUse.Error()}
	}
	var restrict *appErr.CascadeRestrictError
	if errors.As(err, &restrict) {
		return &APIError{Code: "cascade_restrict", Message: restrict.Error()}
	}

	var ae *appErr.AppError
	if errors.As(err, &ae) {
		return &APIError{Code: string(ae.Code), Message: ae.Message}
	}
	return &APIError{Code: string(appErr.CodeUnknown), Message: err.Error()}
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	var violations appErr.ViolationList
	var fields appErr.ValidationErrorList
	var inUse *appErr.DefinitionInUseError
	var restrict *appErr.CascadeRestrictError
	switch {
	case errors.As(err, &violations), errors.As(err, &fields):
		return http.StatusUnprocessableEntity
	case errors.As(err, &inUse), errors.As(err, &restrict):
		return http.StatusConflict
	}

	var ae *appErr.AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case appErr.CodeInvalid:
			return http.StatusBadRequest
		case appErr.CodeNotFound:
			return http.StatusNotFound
		case appErr.CodeConflict, appErr.CodeAlreadyExists:
			return http.StatusConflict
		case appErr.CodeUnavailable:
			return http.StatusServiceUnavailable
		case appErr.CodeDeadline:
			return http.StatusGatewayTimeout
		}
	}
	return http.StatusInternalServerError
}
