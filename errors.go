package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
)

// Error kinds shown on failed assistant turns. The kind drives how the
// message is presented and whether retrying makes sense.
const (
	ErrKindRateLimit    = "RATE_LIMIT"
	ErrKindContextLimit = "CONTEXT_LIMIT"
	ErrKindSQL          = "SQL_ERROR"
	ErrKindAPI          = "API_ERROR"
	ErrKindUnknown      = "UNKNOWN"
)

// classifyError maps a turn failure onto an error kind plus the detail text
// stored with the error message. Cancellation is not an error kind; callers
// check for it before classifying.
func classifyError(err error) (kind, details string) {
	if err == nil {
		return "", ""
	}

	var reqErr *agent.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.ErrorType != "":
			kind = normalizeErrorType(reqErr.ErrorType)
		case reqErr.Status == http.StatusTooManyRequests:
			kind = ErrKindRateLimit
		case reqErr.Status == http.StatusRequestEntityTooLarge:
			kind = ErrKindContextLimit
		case reqErr.Status >= 400:
			kind = ErrKindAPI
		default:
			kind = ErrKindUnknown
		}
		details = reqErr.Details
		if details == "" {
			details = reqErr.Message
		}
		return kind, details
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return ErrKindRateLimit, err.Error()
	case strings.Contains(msg, "context length") || strings.Contains(msg, "token limit") || strings.Contains(msg, "maximum context"):
		return ErrKindContextLimit, err.Error()
	case strings.Contains(msg, "sql") || strings.Contains(msg, "syntax error"):
		return ErrKindSQL, err.Error()
	default:
		return ErrKindUnknown, err.Error()
	}
}

func normalizeErrorType(errorType string) string {
	switch strings.ToUpper(strings.TrimSpace(errorType)) {
	case ErrKindRateLimit, "RATE_LIMIT_ERROR":
		return ErrKindRateLimit
	case ErrKindContextLimit, "CONTEXT_LENGTH_EXCEEDED":
		return ErrKindContextLimit
	case ErrKindSQL, "QUERY_ERROR":
		return ErrKindSQL
	case ErrKindAPI:
		return ErrKindAPI
	default:
		return ErrKindUnknown
	}
}

// isCancellation reports whether the error is a context cancellation, in
// which case no error message is appended to the conversation.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
