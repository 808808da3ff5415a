package dahua

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tansive/dahuarpc/internal/devicesim"
)

func TestParseSplitMode(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"Split1", 1, false},
		{"Split4", 4, false},
		{"Split16", 16, false},
		{"Split", 0, true},
		{"Split0", 0, true},
		{"SplitX", 0, true},
		{"split4", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSplitMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, FormatSplitMode(got))
		})
	}
}

func TestSetSplitWireFormat(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":3001}`, `{"id":2,"result":true}`)

	require.NoError(t, s.SetSplit(context.Background(), 4, 1))

	factory := sent(t, c, 0)
	assert.Equal(t, "split.factory.instance", factory.Get("method").String())
	assert.JSONEq(t, `{"channel":0}`, factory.Get("params").Raw)
	assert.False(t, factory.Get("object").Exists())

	set := sent(t, c, 1)
	assert.Equal(t, "split.setMode", set.Get("method").String())
	assert.Equal(t, int64(3001), set.Get("object").Int())
	assert.JSONEq(t, `{"displayType":"General","workMode":"Local","mode":"Split4","group":0}`, set.Get("params").Raw)
}

func TestGetSplitParsesWireValues(t *testing.T) {
	s, c := newStubSession(t,
		`{"id":1,"result":3001}`,
		`{"id":2,"result":true,"params":{"mode":"Split4","group":0}}`,
	)

	mode, view, err := s.GetSplit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, mode)
	assert.Equal(t, 1, view)

	get := sent(t, c, 1)
	assert.Equal(t, "split.getMode", get.Get("method").String())
	assert.Equal(t, `""`, get.Get("params").Raw)
}

func TestGetSplitMalformed(t *testing.T) {
	for _, body := range []string{
		`{"id":2,"result":true,"params":{"mode":"Grid","group":0}}`,
		`{"id":2,"result":true,"params":{"mode":"Split4"}}`,
		`{"id":2,"result":false}`,
	} {
		s, _ := newStubSession(t, `{"id":1,"result":3001}`, body)
		_, _, err := s.GetSplit(context.Background())
		assert.ErrorIs(t, err, ErrRequestFailed, body)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	s, dev := newSimSession(t, devicesim.Options{})
	ctx := context.Background()

	for _, tc := range []struct{ mode, view int }{{1, 1}, {4, 1}, {9, 3}, {16, 2}} {
		require.NoError(t, s.SetSplit(ctx, tc.mode, tc.view))
		wireMode, group := dev.Split()
		assert.Equal(t, FormatSplitMode(tc.mode), wireMode)
		assert.Equal(t, tc.view-1, group)

		mode, view, err := s.GetSplit(ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.mode, mode)
		assert.Equal(t, tc.view, view)
	}
}

func TestSetSplitRejectsBadInput(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":true}`)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetSplit(ctx, 0, 1), ErrInvalidArgument)
	assert.ErrorIs(t, s.SetSplit(ctx, 4, 0), ErrInvalidArgument)
	assert.Empty(t, c.Requests())
}
