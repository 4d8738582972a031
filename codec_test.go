package tabular

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxia-ai/tabular/artifact"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	table := testTable(t)
	figure, err := decodeFigure([]byte(scatterFigure))
	require.NoError(t, err)

	events := []Event{
		&ResponseCreatedEvent{RunID: "r1", AgentName: "a", SessionID: "s1"},
		&TextDeltaEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Delta: "hello"},
		&TableTransformEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Table: table, TableName: "sales", Code: "def transform_table(df):\n    return df"},
		&MultiTableTransformEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Tables: map[string]*artifact.Table{"sales": table}, Code: "code"},
		&PlotGeneratedEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Figure: figure, Code: "def generate_plot(df):\n    return fig"},
		&FunctionErrorEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Message: "KeyError: 'z'"},
		&ResponseCompletedEvent{RunID: "r1", AgentName: "a", SessionID: "s1"},
	}

	for _, original := range events {
		data, err := EncodeEvent(original)
		require.NoError(t, err, original.Type())

		decoded, err := DecodeEvent(data)
		require.NoError(t, err, original.Type())
		assert.Equal(t, original.Type(), decoded.Type())
		assert.Equal(t, "r1", decoded.ID())
	}
}

func TestDecodedTableTransformKeepsPayload(t *testing.T) {
	original := &TableTransformEvent{
		RunID: "r1", AgentName: "a", SessionID: "s1",
		Table: testTable(t), TableName: "sales", Code: "code",
	}
	data, err := EncodeEvent(original)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	transform := decoded.(*TableTransformEvent)
	assert.Equal(t, "sales", transform.TableName)
	assert.Equal(t, []string{"x", "y"}, transform.Table.Columns)
	assert.Equal(t, 10, transform.Table.NumRows())
}

func TestErrorEventEncodesMessage(t *testing.T) {
	original := &ErrorEvent{RunID: "r1", AgentName: "a", SessionID: "s1", Err: errors.New("model unavailable")}
	data, err := EncodeEvent(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model unavailable")

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	errEvent := decoded.(*ErrorEvent)
	assert.EqualError(t, errEvent.Err, "model unavailable")
}

func TestDecodeUnknownTypeTag(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type": "response.telepathy", "payload": {}}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestDecodeInvalidEnvelope(t *testing.T) {
	_, err := DecodeEvent([]byte(`not json`))
	assert.ErrorContains(t, err, "envelope")
}
