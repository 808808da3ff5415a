package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeArg(t *testing.T) {
	now := time.Date(2019, 5, 28, 12, 0, 0, 0, time.Local)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", now},
		{"now", now},
		{"1558925818", time.Unix(1558925818, 0)},
		{"24h", now.Add(-24 * time.Hour)},
		{"90m", now.Add(-90 * time.Minute)},
		{"2019-05-27", time.Date(2019, 5, 27, 0, 0, 0, 0, time.Local)},
		{"2019-05-27 10:30:00", time.Date(2019, 5, 27, 10, 30, 0, 0, time.Local)},
		{"2019-05-27T10:30:00", time.Date(2019, 5, 27, 10, 30, 0, 0, time.Local)},
		{"2019-05-27T10:30:00Z", time.Date(2019, 5, 27, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeArg(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := parseTimeArg("yesterday-ish", now)
	assert.Error(t, err)
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, nil)
	assert.Contains(t, buf.String(), "No records found")

	buf.Reset()
	printRecords(&buf, []map[string]any{
		{"Time": float64(1558925900), "PlateNumber": "ABC123", "Lane": float64(2), "Extra": map[string]any{"Speed": float64(40)}},
	})
	out := buf.String()
	assert.Contains(t, out, "Record 1")
	assert.Contains(t, out, "ABC123")
	assert.Contains(t, out, "1558925900")
	assert.Contains(t, out, `"Speed"`)
	assert.Contains(t, out, "1 record(s)")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", formatValue(nil))
	assert.Equal(t, "plain", formatValue("plain"))
	assert.Equal(t, "1558925900", formatValue(float64(1558925900)))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "true", formatValue(true))
	assert.JSONEq(t, "[1,2]", formatValue([]any{float64(1), float64(2)}))
}
