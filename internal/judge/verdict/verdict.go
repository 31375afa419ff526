// Package verdict turns backend results and engine errors into JudgeVerdicts.
package verdict

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"codeduel/internal/judge/backend"
	"codeduel/internal/judge/compare"
	"codeduel/internal/judge/harness"
	"codeduel/internal/judge/model"
	appErr "codeduel/pkg/errors"
)

// Verdict messages.
const (
	MessagePassed              = "Passed"
	MessageWrongAnswer         = "Wrong Answer"
	MessageCompilationError    = "Compilation Error"
	MessageExecutionError      = "Execution Error"
	MessageUnexpectedOutput    = "Unexpected Output"
	MessageInvalidRequest      = "Invalid Request"
	MessageUnsupportedLanguage = "Unsupported Language"
	MessageConfigurationError  = "Configuration Error"
	MessageBackendUnavailable  = "Backend Unavailable"
	MessageBackendTimeout      = "Backend Timeout"
	MessageBackendBusy         = "Backend Busy"
	MessageProblemNotFound     = "Problem Not Found"
	MessageInternalError       = "Internal Error"
)

const maxEmbeddedOutput = 2000

// Mode tells the classifier how the program was run.
type Mode struct {
	UsedHarness bool
	// Expected is the serialized expected output, used in raw mode.
	Expected string
}

// Classify applies the verdict decision table to a backend result.
func Classify(res backend.Result, mode Mode) model.JudgeVerdict {
	v := model.JudgeVerdict{
		Stdout:        res.Stdout,
		Stderr:        res.Stderr,
		Time:          res.Time,
		Memory:        res.Memory,
		CompileOutput: res.CompileOutput,
	}

	if res.StatusID == backend.StatusCompilationError {
		v.Message = MessageCompilationError
		return v
	}
	if res.StatusID != backend.StatusAccepted {
		v.Message = strings.TrimSpace(res.StatusDescription)
		if v.Message == "" {
			v.Message = fmt.Sprintf("Backend status %d", res.StatusID)
		}
		return v
	}

	if !mode.UsedHarness {
		actual := strings.TrimSpace(res.Stdout)
		if actual == strings.TrimSpace(mode.Expected) {
			v.Passed = true
			v.Message = MessagePassed
			return v
		}
		v.Message = MessageWrongAnswer
		v.ActualValue = actual
		return v
	}

	m := scan(res.Stdout)
	switch {
	case m.passed:
		v.Passed = true
		v.Message = MessagePassed
	case m.failed:
		v.Message = MessageWrongAnswer
		if m.hasResult {
			v.ActualValue = compare.Decode(m.result)
		}
	case m.errorLine != "":
		v.Message = MessageExecutionError
		v.Error = stringPtr(withOutput(m.errorLine, res.Stderr))
	default:
		v.Message = MessageUnexpectedOutput
		v.Error = stringPtr(withOutput("no verdict marker in harness output", res.Stdout+res.Stderr))
	}
	return v
}

type markers struct {
	passed    bool
	failed    bool
	hasResult bool
	result    string
	errorLine string
}

// scan looks for markers on whole lines only.
func scan(stdout string) markers {
	var m markers
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, " \t\r")
		switch {
		case line == harness.MarkerPassed:
			m.passed = true
		case line == harness.MarkerFailed:
			m.failed = true
		case strings.HasPrefix(line, harness.MarkerResult) && !m.hasResult:
			m.hasResult = true
			m.result = strings.TrimSpace(strings.TrimPrefix(line, harness.MarkerResult))
		case strings.HasPrefix(line, harness.MarkerExecutionError) && m.errorLine == "":
			m.errorLine = strings.TrimSpace(strings.TrimPrefix(line, harness.MarkerExecutionError))
		case strings.HasPrefix(line, harness.MarkerError) && m.errorLine == "":
			m.errorLine = strings.TrimSpace(strings.TrimPrefix(line, harness.MarkerError))
		}
	}
	return m
}

// FromError maps an engine error to a failed verdict.
func FromError(err error) model.JudgeVerdict {
	message := MessageInternalError
	switch appErr.GetCode(err) {
	case appErr.ValidationFailed, appErr.InvalidParams, appErr.InvalidFormat, appErr.InvalidValue,
		appErr.RequiredFieldEmpty, appErr.CodeTooLarge, appErr.TestCaseInvalid:
		message = MessageInvalidRequest
	case appErr.LanguageNotSupported:
		message = MessageUnsupportedLanguage
	case appErr.ConfigurationError:
		message = MessageConfigurationError
	case appErr.BackendUnavailable:
		message = MessageBackendUnavailable
	case appErr.Timeout:
		message = MessageBackendTimeout
	case appErr.JudgeQueueFull, appErr.TooManyRequests:
		message = MessageBackendBusy
	case appErr.ProblemNotFound, appErr.TestCaseNotFound, appErr.NotFound:
		message = MessageProblemNotFound
	}
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return model.JudgeVerdict{
		Message: message,
		Error:   stringPtr(truncate(detail, maxEmbeddedOutput)),
	}
}

// Redact drops the diagnostics that could reveal a hidden test case.
func Redact(v model.JudgeVerdict) model.JudgeVerdict {
	v.Stdout = ""
	v.Stderr = ""
	v.ActualValue = nil
	if v.Error != nil {
		v.Error = stringPtr("hidden test case")
	}
	return v
}

func withOutput(head, output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return head
	}
	return head + "\n" + truncate(output, maxEmbeddedOutput)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

func stringPtr(s string) *string {
	return &s
}
