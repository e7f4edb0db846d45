package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{name: "now", expr: "now", want: testNow},
		{name: "now with surrounding whitespace", expr: "  now  ", want: testNow},
		{name: "unix seconds", expr: "1715342400", want: time.Unix(1715342400, 0).UTC()},
		{name: "rfc3339 utc", expr: "2024-05-10T09:30:00Z", want: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)},
		{name: "rfc3339 with offset", expr: "2024-05-10T11:30:00+02:00", want: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)},
		{name: "relative seconds", expr: "now-30s", want: testNow.Add(-30 * time.Second)},
		{name: "relative minutes", expr: "now-15m", want: testNow.Add(-15 * time.Minute)},
		{name: "relative hours", expr: "now-2h", want: testNow.Add(-2 * time.Hour)},
		{name: "relative days", expr: "now-3d", want: testNow.Add(-3 * 24 * time.Hour)},
		{name: "relative weeks", expr: "now-1w", want: testNow.Add(-7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.expr, testNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{name: "empty", expr: "", wantErr: "unsupported time format"},
		{name: "garbage", expr: "yesterday", wantErr: "unsupported time format"},
		{name: "bare dash", expr: "now-", wantErr: "invalid relative time"},
		{name: "single char offset", expr: "now-m", wantErr: "invalid relative time"},
		{name: "bad quantity", expr: "now-xxm", wantErr: "invalid relative duration quantity"},
		{name: "bad unit", expr: "now-5y", wantErr: "invalid relative duration unit"},
		{name: "date only", expr: "2024-05-10", wantErr: "unsupported time format"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.expr, testNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseWindowSpansExactOffset(t *testing.T) {
	t.Parallel()

	from, err := Parse("now-30m", testNow)
	require.NoError(t, err)
	to, err := Parse("now", testNow)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, to.Sub(from))
	assert.True(t, to.Equal(testNow))
}
