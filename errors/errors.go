package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	kind *Error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.kind != nil && e.kind == t)
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of sentinel carrying err as its cause.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: err, kind: sentinel}
}

// WithMessage returns a copy of sentinel with a caller-facing message.
func WithMessage(sentinel *Error, message string) *Error {
	return &Error{Code: sentinel.Code, Message: message, kind: sentinel}
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Catalog sync error types
var (
	ErrTransport       = New(http.StatusBadGateway, "Catalog API request failed", nil)
	ErrParse           = New(http.StatusBadGateway, "Invalid response from catalog API", nil)
	ErrImportStopped   = New(http.StatusConflict, "Import stopped", nil)
	ErrInvalidItem     = New(http.StatusUnprocessableEntity, "Invalid catalog item", nil)
	ErrImageFetch      = New(http.StatusBadGateway, "Image download failed", nil)
	ErrCorruptEntity   = New(http.StatusInternalServerError, "Corrupted product data", nil)
	ErrOrphanVariation = New(http.StatusInternalServerError, "Variation parent missing", nil)
)

// StatusCode returns the HTTP status for err, defaulting to 500.
func StatusCode(err error) int {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// ErrorMiddleware renders the last gin error as a JSON payload.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			c.JSON(StatusCode(err), gin.H{"success": false, "message": err.Error()})
			c.Abort()
		}
	}
}
