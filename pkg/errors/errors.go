package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures so callers can tell retryable conditions from
// terminal ones instead of string-matching messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindExternalService covers profile/OTP/classification/ticketing
	// collaborators being unavailable or timing out.
	KindExternalService
	// KindValidation is malformed user input (OTP/mobile/email); recoverable
	// locally with a re-prompt.
	KindValidation
	// KindStateCorruption is an unparseable stored session or cache record.
	// Self-healed by discarding the record.
	KindStateCorruption
	// KindAuthorizationMismatch is a failed current-value challenge: the
	// claimed value does not match the profile on record.
	KindAuthorizationMismatch
	// KindPostVerificationApply is a mutation API failure after OTP
	// verification succeeded. The workflow must be cleared, not retried.
	KindPostVerificationApply
)

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	code    int
	kind    Kind
	data    map[string]interface{}
}

func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    http.StatusInternalServerError,
	}
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
	}
	if income, ok := err.(*CustomizedError); ok {
		ce.code = income.code
		ce.kind = income.kind
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func (e *CustomizedError) Kind(k Kind) *CustomizedError {
	e.kind = k
	return e
}

func (e *CustomizedError) GetKind() Kind {
	return e.kind
}

func (e *CustomizedError) Message() string {
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"kind":%d,"msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.code, e.kind, e.message, e.cause, otherDetails)
}

// KindOf reports the Kind of err when it carries one.
func KindOf(err error) Kind {
	if ce, ok := err.(*CustomizedError); ok {
		return ce.kind
	}
	return KindUnknown
}
