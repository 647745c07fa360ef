package caerrors

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// IException provides interface for
//   - user facing error message with status code
//   - raw error for tracking them
type IException interface {
	ExceptionBody() map[string]interface{}
	ExceptionStatusCode() int
	RawException() error
}

type Error struct {
	IException
	Code       int
	Message    string
	StatusCode int
	RawError   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (Code = %v)", e.Message, e.Code)
}

func (e *Error) ExceptionBody() map[string]interface{} {
	return map[string]interface{}{"code": e.Code, "message": e.Message}
}

func (e *Error) ExceptionStatusCode() int {
	return e.StatusCode
}

func (e *Error) RawException() error {
	return e.RawError
}

// WithMsg modify user visible message
func (e Error) WithMsg(msg string) *Error {
	e.Message = msg
	return &e
}

// WithError returns raw error struct which is not exposed to user.
// It is used for internal error tracking.
func (e Error) WithError(err error) *Error {
	e.RawError = err
	return &e
}

func New(code int, message string, statusCode int) *Error {
	return &Error{Code: code, Message: message, StatusCode: statusCode}
}

func NewInternalServerError(code int, message string) *Error {
	return New(code, message, http.StatusInternalServerError)
}

func NewUnprocessableEntity(code int, message string) *Error {
	return New(code, message, http.StatusUnprocessableEntity)
}

func NewNotFound(code int, message string) *Error {
	return New(code, message, http.StatusNotFound)
}

func NewConflict(code int, message string) *Error {
	return New(code, message, http.StatusConflict)
}

func NewBadRequest(code int, message string) *Error {
	return New(code, message, http.StatusBadRequest)
}

func Format(err error) string {
	var errmsg string
	if caerr, ok := err.(IException); ok {
		if caerr.RawException() != nil {
			errmsg = fmt.Sprintf("%v : %v", err.Error(), caerr.RawException().Error())
		} else {
			errmsg = fmt.Sprintf("%v", err.Error())
		}
	} else {
		errmsg = fmt.Sprintf("%v", err.Error())
	}
	return errmsg
}

func IsNotFound(err error) bool {
	return strings.Contains(err.Error(), strconv.FormatInt(int64(NotFound.Code), 10))
}

// Is reports whether err carries the same code as target. Engine errors
// travel through the store and service layers by value, so the code is the
// stable identity.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	caerr, ok := err.(*Error)
	return ok && caerr.Code == target.Code
}

// code convention is http_status_code:custom_code where custom code starts from 10000
var (
	// 400
	InvalidRequestParam = NewUnprocessableEntity(40010001, "request parameters are invalid")

	// 404
	NotFound = NewNotFound(40410000, "resource not found")

	// 409
	Conflict = NewConflict(40910000, "resource conflict")

	// 500
	InternalServerError = NewInternalServerError(50010000, "internal server error occurred")
)

// corporate action engine taxonomy, custom codes from 10100
var (
	InvalidRatio   = NewUnprocessableEntity(42210100, "ratio must be positive")
	InvalidAmount  = NewUnprocessableEntity(42210101, "amount is missing or out of range")
	NoAffectedLots = NewUnprocessableEntity(42210102, "no open lots exist for the symbol as of the ex-date")

	UnknownActionType = NewUnprocessableEntity(42210103, "unrecognized corporate action type")

	NotPending              = NewConflict(40910100, "action is not in pending status")
	AlreadyApplied          = NewConflict(40910101, "action has already been applied")
	NotApplied              = NewConflict(40910102, "action has not been applied")
	CannotReverseOutOfOrder = NewConflict(40910103, "a later action on this symbol has already been applied")

	CalculationPrecisionError = NewInternalServerError(50010100, "rounding residual exceeds tolerance")
	LotStoreUnavailable       = NewInternalServerError(50010101, "lot store is unavailable")
)
