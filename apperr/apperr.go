// Package apperr is the error vocabulary shared by the service layer and the
// HTTP handlers. Services return *Error values with a machine-readable code
// and reason; handlers map them onto HTTP statuses with HTTPStatus.
package apperr

import (
	"errors"
	"net/http"
)

// Error codes. EREJECTED covers business-rule rejections (inactive product,
// insufficient stock, bad coupon, empty cart); ECONFLICT covers commit-time
// races the caller may retry after re-fetching state.
const (
	EINVALID   = "invalid"
	ENOTFOUND  = "not_found"
	EFORBIDDEN = "forbidden"
	EREJECTED  = "rejected"
	ECONFLICT  = "conflict"
	EINTERNAL  = "internal"
)

type Error struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorCode returns the code of err, or EINTERNAL for errors that did not
// originate in this package (driver failures, broken invariants).
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorReason returns the reason tag of err, or "" when there is none.
func ErrorReason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case EINVALID:
		return http.StatusBadRequest
	case ENOTFOUND:
		return http.StatusNotFound
	case EFORBIDDEN:
		return http.StatusForbidden
	case EREJECTED:
		return http.StatusUnprocessableEntity
	case ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
