package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestConstructRequest(t *testing.T) {
	t.Run("omits params, object and session when unset", func(t *testing.T) {
		body, err := ConstructRequest(Request{Method: "global.getCurrentTime", ID: 1}, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"method":"global.getCurrentTime","id":1}`, string(body))
	})

	t.Run("empty string params are still sent", func(t *testing.T) {
		params, err := EncodeParams("")
		require.NoError(t, err)
		body, err := ConstructRequest(Request{Method: "magicBox.factory.instance", ID: 2, Params: params}, nil)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(body, "params").Exists())
		assert.Equal(t, "", gjson.GetBytes(body, "params").String())
	})

	t.Run("falsy object handles are dropped", func(t *testing.T) {
		for _, h := range []Handle{nil, Handle("0"), Handle(`""`), Handle("false"), Handle("null")} {
			body, err := ConstructRequest(Request{Method: "m", ID: 1, Object: h}, nil)
			require.NoError(t, err)
			assert.False(t, gjson.GetBytes(body, "object").Exists(), "handle %q", string(h))
		}
		body, err := ConstructRequest(Request{Method: "m", ID: 1, Object: Handle("3047")}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3047), gjson.GetBytes(body, "object").Int())
	})

	t.Run("session is written after extra fields", func(t *testing.T) {
		req := Request{Method: "m", ID: 7, Session: HandleFrom("abc123")}
		body, err := ConstructRequest(req, map[string]any{
			"session": "forged",
			"seq":     9,
			"a.b":     "literal",
		})
		require.NoError(t, err)
		assert.Equal(t, "abc123", gjson.GetBytes(body, "session").String())
		assert.Equal(t, int64(9), gjson.GetBytes(body, "seq").Int())
		assert.Equal(t, "literal", gjson.GetBytes(body, `a\.b`).String())
	})

	t.Run("method is required", func(t *testing.T) {
		_, err := ConstructRequest(Request{ID: 1}, nil)
		assert.Error(t, err)
	})
}

func TestEncodeParams(t *testing.T) {
	raw, err := EncodeParams(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = EncodeParams(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	raw, err = EncodeParams(json.RawMessage(`{"channel":0}`))
	require.NoError(t, err)
	assert.Equal(t, `{"channel":0}`, string(raw))

	_, err = EncodeParams(json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"id":3,"result":true,"params":{"time":"2020-01-01 00:00:00"}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.ID)
	assert.True(t, resp.IsTrue())
	assert.False(t, resp.IsFalse())
	assert.Equal(t, "2020-01-01 00:00:00", resp.Param("time").String())
	assert.Contains(t, resp.String(), "2020-01-01")

	resp, err = ParseResponse([]byte(`{"id":4,"result":false,"error":{"code":268632085,"message":"bad password"}}`))
	require.NoError(t, err)
	assert.True(t, resp.IsFalse())
	assert.Equal(t, "code 268632085: bad password", resp.Error.String())
	assert.False(t, resp.Param("time").Exists())

	resp, err = ParseResponse([]byte(`{"id":5,"result":3047}`))
	require.NoError(t, err)
	assert.True(t, resp.HasResult())
	assert.False(t, resp.IsFalse())
	assert.Equal(t, "3047", resp.ResultHandle().String())

	resp, err = ParseResponse([]byte(`{"id":6,"session":"S1","params":{"realm":"R1","random":"N1"}}`))
	require.NoError(t, err)
	assert.False(t, resp.HasResult())
	assert.Equal(t, "S1", resp.Session.String())

	_, err = ParseResponse([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = ParseResponse([]byte(`<html>`))
	assert.Error(t, err)
}

func TestHandleIsZero(t *testing.T) {
	tests := []struct {
		raw  string
		zero bool
	}{
		{"", true},
		{"null", true},
		{"false", true},
		{"0", true},
		{`""`, true},
		{"{}", true},
		{"[]", true},
		{"1", false},
		{"true", false},
		{`"abc"`, false},
		{`{"id":1}`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.zero, Handle(tt.raw).IsZero(), "raw %q", tt.raw)
	}
}
