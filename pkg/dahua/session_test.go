package dahua

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tansive/dahuarpc/internal/common/httpclient"
	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

// stubDevice answers each request with the next canned body; the last body
// is repeated once the list is exhausted.
type stubDevice struct {
	mu     sync.Mutex
	bodies []string
	served int
}

func (d *stubDevice) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.served
	if i >= len(d.bodies) {
		i = len(d.bodies) - 1
	}
	d.served++
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(d.bodies[i]))
}

func newStubSession(t *testing.T, bodies ...string) (*Session, *httpclient.TestHTTPClient) {
	t.Helper()
	client := httpclient.NewTestClient(&stubDevice{bodies: bodies})
	s, err := New("10.0.0.5", "admin", "password", WithHTTPClient(client))
	require.NoError(t, err)
	return s, client
}

// sent parses the n-th request body the client saw.
func sent(t *testing.T, c *httpclient.TestHTTPClient, n int) gjson.Result {
	t.Helper()
	reqs := c.Requests()
	require.Greater(t, len(reqs), n)
	return gjson.ParseBytes(reqs[n].Body)
}

const challenge = `{"id":1,"result":false,"session":"S","params":{"realm":"R1","random":"N1","encryption":"Default"},"error":{"code":268632079,"message":"Component error: login challenge!"}}`

func TestNewValidatesArguments(t *testing.T) {
	_, err := New("", "admin", "pw")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New("10.0.0.5", "", "pw")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New("ftp://10.0.0.5", "admin", "pw", WithScheme("ftp"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s, err := New("https://cam.local/", "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "cam.local", s.Host())
	assert.Equal(t, "https://cam.local/RPC2", s.URL(RPCPath))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Token())
	assert.Equal(t, int64(0), s.RequestID())
	require.NoError(t, s.Close())
}

func TestRequestIDsIncrementFromOne(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":true}`)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Invoke(ctx, Call{Method: "global.getCurrentTime"})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(i+1), sent(t, c, i).Get("id").Int())
	}
	assert.Equal(t, int64(3), s.RequestID())
}

func TestRequestIDAdvancesOnFailure(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":false}`, `not json`, `{"id":3,"result":true}`)
	ctx := context.Background()

	err := s.KeepAlive(ctx)
	assert.ErrorIs(t, err, ErrRequestFailed)
	_, err = s.Invoke(ctx, Call{Method: "global.getCurrentTime"})
	assert.Error(t, err)
	_, err = s.Invoke(ctx, Call{Method: "global.getCurrentTime"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), sent(t, c, 2).Get("id").Int())
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":true}`)
	ctx := context.Background()

	_, err := s.Invoke(ctx, Call{Method: "global.getCurrentTime"})
	require.NoError(t, err)
	body := sent(t, c, 0)
	assert.Equal(t, "global.getCurrentTime", body.Get("method").String())
	assert.False(t, body.Get("params").Exists())
	assert.False(t, body.Get("object").Exists())
	assert.False(t, body.Get("session").Exists())

	_, err = s.Invoke(ctx, Call{Method: "split.getMode", Params: "", Object: jsonrpc.HandleFrom(0)})
	require.NoError(t, err)
	body = sent(t, c, 1)
	assert.True(t, body.Get("params").Exists())
	assert.Equal(t, "", body.Get("params").String())
	assert.False(t, body.Get("object").Exists())

	_, err = s.Invoke(ctx, Call{Method: "split.getMode", Object: jsonrpc.HandleFrom(3001)})
	require.NoError(t, err)
	assert.Equal(t, int64(3001), sent(t, c, 2).Get("object").Int())
}

func TestExtraFieldsAndURLOverride(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":true}`)

	_, err := s.Invoke(context.Background(), Call{
		Method: "system.multicall",
		Extra:  map[string]any{"session": "forged", "tag": "x"},
		URL:    "http://10.0.0.5/RPC2_Other",
	})
	require.NoError(t, err)

	req, ok := c.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/RPC2_Other", req.Path)
	body := gjson.ParseBytes(req.Body)
	assert.Equal(t, "x", body.Get("tag").String())
	// Extras can set a session before login; there is no token to protect yet.
	assert.Equal(t, "forged", body.Get("session").String())
}

func TestInvokeReturnsResponseVerbatim(t *testing.T) {
	s, _ := newStubSession(t, `{"id":1,"result":false,"error":{"code":268959743,"message":"Invalid params!"}}`)

	resp, err := s.Invoke(context.Background(), Call{Method: "configManager.getConfig"})
	require.NoError(t, err)
	assert.True(t, resp.IsFalse())
	require.NotNil(t, resp.Error)
	assert.Equal(t, int64(268959743), resp.Error.Code)
}

func TestTransportErrorsAreNotRequestFailures(t *testing.T) {
	client := httpclient.NewTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	s, err := New("10.0.0.5", "admin", "password", WithHTTPClient(client))
	require.NoError(t, err)

	_, err = s.CurrentTime(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequestFailed))
	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, int64(1), s.RequestID())
}

func TestInvalidParamsAreRejectedBeforeSending(t *testing.T) {
	s, c := newStubSession(t, `{"id":1,"result":true}`)

	_, err := s.Invoke(context.Background(), Call{Method: "a.b", Params: json.RawMessage(`{"broken"`)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, c.Requests())
}
