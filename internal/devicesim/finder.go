package devicesim

import (
	"encoding/json"
)

func (d *Device) createFinder(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	// Creation answers with the handle itself, never a boolean.
	id := d.newObject(&object{namespace: "RecordFinder", finder: &finder{name: p.Name}})
	return rpcResponse{Result: id}
}

// startFind accepts {"condition": {"Time": ["<>", start, end]}} and selects
// records whose Time lies in [start, end).
func (d *Device) startFind(req *rpcRequest, obj *object) rpcResponse {
	var p struct {
		Condition struct {
			Time []json.RawMessage `json:"Time"`
		} `json:"condition"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || len(p.Condition.Time) != 3 {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	var op string
	var start, end int64
	if json.Unmarshal(p.Condition.Time[0], &op) != nil || op != "<>" ||
		json.Unmarshal(p.Condition.Time[1], &start) != nil ||
		json.Unmarshal(p.Condition.Time[2], &end) != nil {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}

	f := obj.finder
	f.matches = f.matches[:0]
	f.cursor = 0
	if f.name == TrafficSnapFinder {
		for _, rec := range d.opts.Records {
			t, ok := recordTime(rec)
			if ok && t >= start && t < end {
				f.matches = append(f.matches, rec)
			}
		}
	}
	f.started = true
	return success(nil)
}

// doFind returns up to count records and advances the cursor, so repeated
// calls page through the result set.
func (d *Device) doFind(req *rpcRequest, obj *object) rpcResponse {
	f := obj.finder
	if !f.started {
		return failure(ErrCodeInvalidParams, "Find not started!")
	}
	var p struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Count <= 0 {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}

	end := f.cursor + p.Count
	if end > len(f.matches) {
		end = len(f.matches)
	}
	page := f.matches[f.cursor:end]
	f.cursor = end

	infos := make([]Record, len(page))
	copy(infos, page)
	return success(map[string]any{
		"found": len(infos),
		"infos": infos,
	})
}

func recordTime(rec Record) (int64, bool) {
	switch t := rec["Time"].(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}
