package types

import appErr "github.com/fusecms/engine/pkg/errors"

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Violations and Fields carry enumerable error lists so the dashboard
	// can render one message per problem.
	Violations []appErr.Violation       `json:"violations,omitempty"`
	Fields     []appErr.ValidationError `json:"fields,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Total     int64  `json:"total,omitempty"`
	HasMore   bool   `json:"has_more,omitempty"`
}
