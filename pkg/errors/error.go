package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

const maxStackDepth = 10

// Error carries an ErrorCode through the judge pipeline. Message is what
// verdicts and envelopes show; Err keeps the cause for errors.Is/As.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
	Stack   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
		Stack:   getStack(3),
	}
}

// New creates an Error with the code's default message.
func New(code ErrorCode) *Error {
	return newError(code, code.Message(), nil)
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code to err and keeps err's message. Wrapping an *Error
// returns a new value; the wrapped one is left untouched.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if stderrors.As(err, &inner) {
		out := &Error{Code: code, Message: inner.Message, Err: err, Stack: inner.Stack}
		for k, v := range inner.Details {
			out.WithDetail(k, v)
		}
		return out
	}
	return newError(code, err.Error(), err)
}

// Wrapf attaches code to err with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, args...), err)
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetCode returns the code of the first *Error in err's chain, Success for
// nil and InternalServerError for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalServerError
}

// GetError returns the first *Error in err's chain, wrapping foreign errors
// as InternalServerError.
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return Wrap(err, InternalServerError)
}

// Is reports whether err carries code.
func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsServerSide reports whether err is the engine's or the backend's fault
// rather than the caller's.
func IsServerSide(err error) bool {
	return err != nil && GetCode(err).ServerSide()
}

func getStack(skip int) string {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return b.String()
		}
	}
}

// ValidationError reports a rejected request field.
func ValidationError(field, reason string) *Error {
	return Newf(ValidationFailed, "%s: %s", field, reason).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// ConfigError reports a missing or invalid setting by name.
func ConfigError(setting string) *Error {
	return Newf(ConfigurationError, "configuration error: %s is not set", setting).
		WithDetail("setting", setting)
}
