package dahua

import (
	"context"
	"strconv"
	"strings"
)

const (
	splitFactory    = "split.factory.instance"
	splitModePrefix = "Split"
)

type splitFactoryParams struct {
	Channel int `json:"channel"`
}

type splitModeParams struct {
	DisplayType string `json:"displayType"`
	WorkMode    string `json:"workMode"`
	Mode        string `json:"mode"`
	Group       int    `json:"group"`
}

// ParseSplitMode converts a wire mode such as "Split4" to its pane count.
func ParseSplitMode(mode string) (int, error) {
	if !strings.HasPrefix(mode, splitModePrefix) {
		return 0, ErrInvalidArgument.New("malformed split mode " + strconv.Quote(mode))
	}
	n, err := strconv.Atoi(mode[len(splitModePrefix):])
	if err != nil || n <= 0 {
		return 0, ErrInvalidArgument.New("malformed split mode " + strconv.Quote(mode))
	}
	return n, nil
}

// FormatSplitMode is the inverse of ParseSplitMode.
func FormatSplitMode(n int) string {
	return splitModePrefix + strconv.Itoa(n)
}

// GetSplit returns the display split of channel 0 as (panes, view). view is
// 1-based; the device reports a 0-based group.
func (s *Session) GetSplit(ctx context.Context) (int, int, error) {
	const method = "split.getMode"
	resp, err := s.callOnInstance(ctx, splitFactory, splitFactoryParams{Channel: 0}, Call{
		Method: method,
		Params: "",
	})
	if err != nil {
		return 0, 0, err
	}

	modeField, groupField := resp.Param("mode"), resp.Param("group")
	if !modeField.Exists() || !groupField.Exists() {
		return 0, 0, unexpectedResponse(method, "params.mode or params.group missing", resp)
	}
	mode, err := ParseSplitMode(modeField.String())
	if err != nil {
		return 0, 0, unexpectedResponse(method, err.Error(), resp)
	}
	return mode, int(groupField.Int()) + 1, nil
}

// SetSplit sets channel 0 to mode panes showing the 1-based view.
func (s *Session) SetSplit(ctx context.Context, mode, view int) error {
	if mode <= 0 {
		return ErrInvalidArgument.New("split mode must be positive")
	}
	if view <= 0 {
		return ErrInvalidArgument.New("split view must be positive")
	}
	_, err := s.callOnInstance(ctx, splitFactory, splitFactoryParams{Channel: 0}, Call{
		Method: "split.setMode",
		Params: splitModeParams{
			DisplayType: "General",
			WorkMode:    "Local",
			Mode:        FormatSplitMode(mode),
			Group:       view - 1,
		},
	})
	return err
}
