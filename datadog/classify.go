package datadog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rmayhew/ddq/apperr"
)

// attemptOutcome captures one network attempt before classification.
// A non-nil transportErr means the upstream never answered.
type attemptOutcome struct {
	status       int
	body         []byte
	transportErr error
	retryAfter   *time.Duration
}

// verdict pairs the classification of an attempt with its retry
// directive. err is nil only for 2xx responses; for retryable outcomes
// it is the terminal error used once the budget runs out.
type verdict struct {
	retry bool
	delay *time.Duration
	err   *apperr.Error
}

func classify(att attemptOutcome, retryRateLimit bool) verdict {
	if att.transportErr != nil {
		return classifyTransport(att.transportErr)
	}

	status := att.status
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return verdict{err: &apperr.Error{
			Category: apperr.CategoryAuth,
			Status:   &status,
			Message:  upstreamMessage(status, att.body),
		}}
	case status == http.StatusTooManyRequests:
		return verdict{
			retry: retryRateLimit,
			delay: att.retryAfter,
			err: &apperr.Error{
				Category:   apperr.CategoryRateLimit,
				Status:     &status,
				Retryable:  retryRateLimit,
				RetryAfter: att.retryAfter,
				Message:    upstreamMessage(status, att.body),
			},
		}
	case status == http.StatusRequestTimeout || status >= 500:
		return verdict{
			retry: true,
			delay: att.retryAfter,
			err: &apperr.Error{
				Category:   apperr.CategoryRetryableUpstream,
				Status:     &status,
				Retryable:  true,
				RetryAfter: att.retryAfter,
				Message:    upstreamMessage(status, att.body),
			},
		}
	case status >= 200 && status < 300:
		return verdict{}
	default:
		return verdict{err: &apperr.Error{
			Category: apperr.CategoryAPI,
			Status:   &status,
			Message:  upstreamMessage(status, att.body),
		}}
	}
}

// classifyTransport maps connect failures and timeouts to a retryable
// upstream error. A canceled context is a local fault, not an upstream
// one.
func classifyTransport(err error) verdict {
	if errors.Is(err, context.Canceled) {
		return verdict{err: apperr.Internalf("request canceled: %v", err)}
	}

	message := fmt.Sprintf("Datadog API request failed: %v", err)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		message = fmt.Sprintf("Datadog API request timed out: %v", err)
	}
	return verdict{
		retry: true,
		err: &apperr.Error{
			Category:  apperr.CategoryRetryableUpstream,
			Retryable: true,
			Message:   message,
		},
	}
}

func upstreamMessage(status int, body []byte) string {
	return fmt.Sprintf("Datadog API returned %d: %s", status, errorBody(body))
}

// errorBody extracts a human message from a Datadog error response.
// Most endpoints answer {"errors":["..."]}; a few use a single "error"
// field.
func errorBody(body []byte) string {
	var list struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list.Errors) > 0 {
		return strings.Join(list.Errors, "; ")
	}
	var single struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Error != "" {
		return single.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "(empty error body)"
}

// parseRetryAfter handles both forms of the header: delta seconds and
// HTTP-date. Unparseable values yield nil so the backoff formula
// applies instead.
func parseRetryAfter(value string, now time.Time) *time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return nil
		}
		d := time.Duration(secs) * time.Second
		return &d
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}
