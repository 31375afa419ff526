package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Problem catalog errors
// 13000-13999: Submission & Judge errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008
	ConfigurationError  ErrorCode = 10009

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Problem Errors (12000-12999) ==========

	ProblemNotFound  ErrorCode = 12000
	TestCaseNotFound ErrorCode = 12100
	TestCaseInvalid  ErrorCode = 12102

	// ========== Submission & Judge Errors (13000-13999) ==========

	// Submission (13000-13099)
	CodeTooLarge         ErrorCode = 13002
	LanguageNotSupported ErrorCode = 13003

	// Judge (13100-13199)
	JudgeQueueFull          ErrorCode = 13100
	JudgeSystemError        ErrorCode = 13101
	BackendUnavailable      ErrorCode = 13107
	HarnessGenerationFailed ErrorCode = 13108

	// Events (13300-13399)
	EventPublishFailed ErrorCode = 13300
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",
	ConfigurationError:  "Configuration error",

	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Problem
	ProblemNotFound:  "Problem not found",
	TestCaseNotFound: "Test case not found",
	TestCaseInvalid:  "Invalid test case format",

	// Submission
	CodeTooLarge:         "Code is too large",
	LanguageNotSupported: "Programming language not supported",

	// Judge
	JudgeQueueFull:          "Judge backend is saturated, please try again later",
	JudgeSystemError:        "Judge system error",
	BackendUnavailable:      "Execution backend unavailable",
	HarnessGenerationFailed: "Failed to generate test harness",

	EventPublishFailed: "Failed to publish verdict event",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code.
// Judge endpoints always answer 200 and carry the failure in the verdict body;
// this mapping is used by the auxiliary endpoints only.
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ProblemNotFound, c == TestCaseNotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable, c == BackendUnavailable, c == JudgeQueueFull:
		return 503
	case c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == CodeTooLarge, c == TestCaseInvalid:
		return 400
	default:
		return 500
	}
}

// ServerSide reports whether the code describes a failure of the engine or
// its backend. Everything else is a problem with the request.
func (c ErrorCode) ServerSide() bool {
	switch c {
	case InternalServerError, ServiceUnavailable, Timeout, CacheError,
		JudgeQueueFull, JudgeSystemError, BackendUnavailable,
		HarnessGenerationFailed, EventPublishFailed:
		return true
	}
	return false
}
