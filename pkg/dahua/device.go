package dahua

import (
	"context"
	"encoding/json"
)

// KeepAliveTimeout is the session timeout, in seconds, requested by KeepAlive.
const KeepAliveTimeout = 300

// CurrentTime returns the device clock exactly as the device formats it,
// e.g. "2020-01-01 00:00:00".
func (s *Session) CurrentTime(ctx context.Context) (string, error) {
	const method = "global.getCurrentTime"
	resp, err := s.call(ctx, Call{Method: method})
	if err != nil {
		return "", err
	}
	t := resp.Param("time")
	if !t.Exists() {
		return "", unexpectedResponse(method, "params.time missing", resp)
	}
	return t.String(), nil
}

type keepAliveParams struct {
	Timeout int  `json:"timeout"`
	Active  bool `json:"active"`
}

// KeepAlive extends the server-side session. Unlike most methods it only
// succeeds when result is exactly true.
func (s *Session) KeepAlive(ctx context.Context) error {
	const method = "global.keepAlive"
	resp, err := s.Invoke(ctx, Call{
		Method: method,
		Params: keepAliveParams{Timeout: KeepAliveTimeout, Active: false},
	})
	if err != nil {
		return err
	}
	if !resp.IsTrue() {
		return requestFailure(method, resp)
	}
	return nil
}

// SetConfig writes a configuration table. params is passed through verbatim,
// typically {"name": "<table>", "table": {...}}.
func (s *Session) SetConfig(ctx context.Context, params any) error {
	if params == nil {
		return ErrInvalidArgument.New("setConfig needs params")
	}
	_, err := s.call(ctx, Call{Method: "configManager.setConfig", Params: params})
	return err
}

// GetProductDefinition returns the device's definition for name, e.g.
// "Traffic", as the raw params object.
func (s *Session) GetProductDefinition(ctx context.Context, name string) (json.RawMessage, error) {
	resp, err := s.call(ctx, Call{
		Method: "magicBox.getProductDefinition",
		Params: map[string]any{"name": name},
	})
	if err != nil {
		return nil, err
	}
	return resp.Params.Raw(), nil
}

// Reboot restarts the device. The device drops the connection shortly after
// answering.
func (s *Session) Reboot(ctx context.Context) error {
	_, err := s.callOnInstance(ctx, "magicBox.factory.instance", "", Call{
		Method: "magicBox.reboot",
		Params: "",
	})
	return err
}

type ntpParams struct {
	Address  string `json:"Address"`
	Port     int    `json:"Port"`
	TimeZone int    `json:"TimeZone"`
}

// NTPSync makes the device adjust its clock against the NTP server at
// address:port. timeZone is the device's time zone index.
func (s *Session) NTPSync(ctx context.Context, address string, port, timeZone int) error {
	if address == "" {
		return ErrInvalidArgument.New("NTP address is required")
	}
	_, err := s.callOnInstance(ctx, "netApp.factory.instance", "", Call{
		Method: "netApp.adjustTimeWithNTP",
		Params: ntpParams{Address: address, Port: port, TimeZone: timeZone},
	})
	return err
}
