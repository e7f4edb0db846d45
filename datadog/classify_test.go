package datadog

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmayhew/ddq/apperr"
	"github.com/rmayhew/ddq/config"
)

func TestClassifyStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		wantCategory apperr.Category
		wantRetry    bool
	}{
		{name: "401", status: 401, wantCategory: apperr.CategoryAuth, wantRetry: false},
		{name: "403", status: 403, wantCategory: apperr.CategoryAuth, wantRetry: false},
		{name: "429", status: 429, wantCategory: apperr.CategoryRateLimit, wantRetry: true},
		{name: "408", status: 408, wantCategory: apperr.CategoryRetryableUpstream, wantRetry: true},
		{name: "500", status: 500, wantCategory: apperr.CategoryRetryableUpstream, wantRetry: true},
		{name: "503", status: 503, wantCategory: apperr.CategoryRetryableUpstream, wantRetry: true},
		{name: "599", status: 599, wantCategory: apperr.CategoryRetryableUpstream, wantRetry: true},
		{name: "400", status: 400, wantCategory: apperr.CategoryAPI, wantRetry: false},
		{name: "404", status: 404, wantCategory: apperr.CategoryAPI, wantRetry: false},
		{name: "422", status: 422, wantCategory: apperr.CategoryAPI, wantRetry: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := classify(attemptOutcome{status: tt.status}, true)
			require.NotNil(t, v.err)
			assert.Equal(t, tt.wantCategory, v.err.Category)
			assert.Equal(t, tt.wantRetry, v.retry)
			require.NotNil(t, v.err.Status)
			assert.Equal(t, tt.status, *v.err.Status)
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	t.Parallel()

	for _, status := range []int{200, 201, 204, 299} {
		v := classify(attemptOutcome{status: status, body: []byte(`{}`)}, true)
		assert.Nil(t, v.err, "status %d", status)
		assert.False(t, v.retry)
	}
}

func TestClassifyRateLimitDisabled(t *testing.T) {
	t.Parallel()

	v := classify(attemptOutcome{status: 429}, false)
	require.NotNil(t, v.err)
	assert.Equal(t, apperr.CategoryRateLimit, v.err.Category)
	assert.False(t, v.retry)
	assert.False(t, v.err.Retryable)
}

func TestClassifyRateLimitCarriesRetryAfter(t *testing.T) {
	t.Parallel()

	hint := 2 * time.Second
	v := classify(attemptOutcome{status: 429, retryAfter: &hint}, true)
	require.NotNil(t, v.delay)
	assert.Equal(t, 2*time.Second, *v.delay)
	require.NotNil(t, v.err.RetryAfter)
	assert.Equal(t, 2*time.Second, *v.err.RetryAfter)
}

func TestClassifyTransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("connect failure", func(t *testing.T) {
		t.Parallel()

		err := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		v := classify(attemptOutcome{transportErr: err}, true)
		require.NotNil(t, v.err)
		assert.True(t, v.retry)
		assert.Equal(t, apperr.CategoryRetryableUpstream, v.err.Category)
		assert.Nil(t, v.err.Status)
		assert.Contains(t, v.err.Message, "request failed")
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		t.Parallel()

		v := classify(attemptOutcome{transportErr: context.DeadlineExceeded}, true)
		require.NotNil(t, v.err)
		assert.True(t, v.retry)
		assert.Equal(t, apperr.CategoryRetryableUpstream, v.err.Category)
		assert.Contains(t, v.err.Message, "timed out")
	})

	t.Run("canceled context is internal", func(t *testing.T) {
		t.Parallel()

		v := classify(attemptOutcome{transportErr: context.Canceled}, true)
		require.NotNil(t, v.err)
		assert.False(t, v.retry)
		assert.Equal(t, apperr.CategoryInternal, v.err.Category)
	})
}

func TestErrorBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "errors array", body: `{"errors":["Forbidden","Invalid key"]}`, want: "Forbidden; Invalid key"},
		{name: "error field", body: `{"error":"not found"}`, want: "not found"},
		{name: "raw text", body: "upstream exploded", want: "upstream exploded"},
		{name: "empty", body: "", want: "(empty error body)"},
		{name: "whitespace only", body: "  \n ", want: "(empty error body)"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, errorBody([]byte(tt.body)))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("delta seconds", func(t *testing.T) {
		t.Parallel()

		d := parseRetryAfter("2", now)
		require.NotNil(t, d)
		assert.Equal(t, 2*time.Second, *d)
	})

	t.Run("zero", func(t *testing.T) {
		t.Parallel()

		d := parseRetryAfter("0", now)
		require.NotNil(t, d)
		assert.Equal(t, time.Duration(0), *d)
	})

	t.Run("http date in the future", func(t *testing.T) {
		t.Parallel()

		header := now.Add(3 * time.Second).Format(http.TimeFormat)
		d := parseRetryAfter(header, now)
		require.NotNil(t, d)
		assert.Equal(t, 3*time.Second, *d)
	})

	t.Run("http date in the past clamps to zero", func(t *testing.T) {
		t.Parallel()

		header := now.Add(-time.Minute).Format(http.TimeFormat)
		d := parseRetryAfter(header, now)
		require.NotNil(t, d)
		assert.Equal(t, time.Duration(0), *d)
	})

	t.Run("unparseable", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, parseRetryAfter("soon", now))
		assert.Nil(t, parseRetryAfter("", now))
		assert.Nil(t, parseRetryAfter("-1", now))
	})
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	policy := config.RetryPolicy{Backoff: 250 * time.Millisecond, MaxBackoff: 5 * time.Second}

	t.Run("exponential growth", func(t *testing.T) {
		t.Parallel()

		want := []time.Duration{
			250 * time.Millisecond,
			500 * time.Millisecond,
			1000 * time.Millisecond,
			2000 * time.Millisecond,
			4000 * time.Millisecond,
			5 * time.Second,
			5 * time.Second,
		}
		for i, expected := range want {
			assert.Equal(t, expected, retryDelay(policy, i, nil), "attempt %d", i)
		}
	})

	t.Run("large attempt index stays capped", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 5*time.Second, retryDelay(policy, 100, nil))
	})

	t.Run("hint overrides formula", func(t *testing.T) {
		t.Parallel()

		hint := 2 * time.Second
		assert.Equal(t, 2*time.Second, retryDelay(policy, 3, &hint))
	})

	t.Run("hint capped at max backoff", func(t *testing.T) {
		t.Parallel()

		hint := time.Minute
		assert.Equal(t, 5*time.Second, retryDelay(policy, 0, &hint))
	})
}
