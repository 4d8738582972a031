package artifact

import "encoding/json"

// Trace is one data series of a plotly figure. Only the fields the core
// inspects are typed; everything else the plotting library emits is carried
// verbatim in Extra so a figure can round-trip without loss.
type Trace struct {
	Type   string         `json:"type,omitempty"`
	Mode   string         `json:"mode,omitempty"`
	Name   string         `json:"name,omitempty"`
	X      []any          `json:"x,omitempty"`
	Y      []any          `json:"y,omitempty"`
	Marker map[string]any `json:"marker,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Figure is a plotly figure specification as produced by fig.to_json().
type Figure struct {
	Data   []Trace        `json:"data"`
	Layout map[string]any `json:"layout,omitempty"`
}

type traceAlias Trace

func (t *Trace) UnmarshalJSON(data []byte) error {
	var alias traceAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"type", "mode", "name", "x", "y", "marker"} {
		delete(raw, known)
	}
	*t = Trace(alias)
	if len(raw) > 0 {
		t.Extra = raw
	}
	return nil
}

func (t Trace) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(t.Extra)+6)
	for k, v := range t.Extra {
		merged[k] = v
	}
	if t.Type != "" {
		merged["type"] = t.Type
	}
	if t.Mode != "" {
		merged["mode"] = t.Mode
	}
	if t.Name != "" {
		merged["name"] = t.Name
	}
	if t.X != nil {
		merged["x"] = t.X
	}
	if t.Y != nil {
		merged["y"] = t.Y
	}
	if t.Marker != nil {
		merged["marker"] = t.Marker
	}
	return json.Marshal(merged)
}

// MarkerColor returns the marker.color property of the trace, if set.
func (t *Trace) MarkerColor() (string, bool) {
	if t.Marker == nil {
		return "", false
	}
	color, ok := t.Marker["color"].(string)
	return color, ok
}
