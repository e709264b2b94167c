package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
)

func TestClassifyErrorFromRequestError(t *testing.T) {
	cases := []struct {
		err  *agent.RequestError
		want string
	}{
		{&agent.RequestError{ErrorType: "RATE_LIMIT"}, ErrKindRateLimit},
		{&agent.RequestError{ErrorType: "rate_limit_error"}, ErrKindRateLimit},
		{&agent.RequestError{ErrorType: "CONTEXT_LENGTH_EXCEEDED"}, ErrKindContextLimit},
		{&agent.RequestError{ErrorType: "QUERY_ERROR"}, ErrKindSQL},
		{&agent.RequestError{ErrorType: "something else"}, ErrKindUnknown},
		{&agent.RequestError{Status: 429}, ErrKindRateLimit},
		{&agent.RequestError{Status: 413}, ErrKindContextLimit},
		{&agent.RequestError{Status: 500}, ErrKindAPI},
	}
	for _, tc := range cases {
		kind, _ := classifyError(tc.err)
		if kind != tc.want {
			t.Errorf("classifyError(%+v) = %q, want %q", tc.err, kind, tc.want)
		}
	}
}

func TestClassifyErrorDetails(t *testing.T) {
	err := &agent.RequestError{Status: 400, ErrorType: "QUERY_ERROR", Message: "bad query", Details: "no such column: foo"}
	kind, details := classifyError(err)
	if kind != ErrKindSQL {
		t.Errorf("kind = %q", kind)
	}
	if details != "no such column: foo" {
		t.Errorf("details = %q", details)
	}

	// message stands in when details are absent
	_, details = classifyError(&agent.RequestError{Status: 500, Message: "oops"})
	if details != "oops" {
		t.Errorf("details fallback = %q", details)
	}
}

func TestClassifyErrorFromPlainMessage(t *testing.T) {
	cases := map[string]string{
		"429 too many requests":           ErrKindRateLimit,
		"maximum context length exceeded": ErrKindContextLimit,
		"SQL syntax error near SELECT":    ErrKindSQL,
		"connection refused":              ErrKindUnknown,
	}
	for msg, want := range cases {
		kind, _ := classifyError(fmt.Errorf("%s", msg))
		if kind != want {
			t.Errorf("classifyError(%q) = %q, want %q", msg, kind, want)
		}
	}
}

func TestIsCancellation(t *testing.T) {
	if !isCancellation(context.Canceled) {
		t.Errorf("context.Canceled not recognized")
	}
	if !isCancellation(fmt.Errorf("request aborted: %w", context.Canceled)) {
		t.Errorf("wrapped cancellation not recognized")
	}
	if isCancellation(errors.New("other")) {
		t.Errorf("plain error misclassified as cancellation")
	}
}
