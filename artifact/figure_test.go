package artifact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A trimmed fig.to_json() output: typed fields plus properties the library
// emits that the core does not model.
const plotlyJSON = `{
	"data": [{
		"type": "scatter",
		"mode": "markers",
		"name": "y vs x",
		"x": [1, 2, 3],
		"y": [4, 5, 6],
		"marker": {"color": "red", "size": 8},
		"hovertemplate": "x=%{x}<br>y=%{y}",
		"legendgroup": ""
	}],
	"layout": {"title": {"text": "demo"}}
}`

func TestFigureUnmarshal(t *testing.T) {
	var figure Figure
	require.NoError(t, json.Unmarshal([]byte(plotlyJSON), &figure))

	require.Len(t, figure.Data, 1)
	trace := figure.Data[0]
	assert.Equal(t, "scatter", trace.Type)
	assert.Equal(t, "markers", trace.Mode)
	assert.Equal(t, "y vs x", trace.Name)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, trace.X)
	assert.Equal(t, []any{4.0, 5.0, 6.0}, trace.Y)

	color, ok := trace.MarkerColor()
	require.True(t, ok)
	assert.Equal(t, "red", color)

	// Unmodeled properties land in Extra.
	assert.Contains(t, trace.Extra, "hovertemplate")
	assert.Contains(t, trace.Extra, "legendgroup")
	assert.NotContains(t, trace.Extra, "type")
}

func TestFigureRoundTripKeepsExtraProperties(t *testing.T) {
	var figure Figure
	require.NoError(t, json.Unmarshal([]byte(plotlyJSON), &figure))

	data, err := json.Marshal(figure)
	require.NoError(t, err)

	var again Figure
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, figure.Data[0].Type, again.Data[0].Type)
	assert.Contains(t, again.Data[0].Extra, "hovertemplate")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	traceRaw := raw["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "x=%{x}<br>y=%{y}", traceRaw["hovertemplate"])
}

func TestMarkerColorAbsent(t *testing.T) {
	trace := Trace{}
	_, ok := trace.MarkerColor()
	assert.False(t, ok)

	trace.Marker = map[string]any{"size": 8.0}
	_, ok = trace.MarkerColor()
	assert.False(t, ok)
}
