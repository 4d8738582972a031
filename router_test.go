package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxia-ai/tabular/ai"
)

func TestRouterTransformThenPlot(t *testing.T) {
	// One model serves the router and both delegates, so the replay covers
	// the classification calls and the delegate turns in order.
	model := replayModel(t,
		toolCallResponse("", TransformToolName, `{"query": "keep rows where y > 5"}`),
		toolCallResponse("", TransformToolName, codeArgs(t, "def transform_table(df):\n    return df[df['y'] > 5]")),
		textResponse("Kept 4 rows."),
		toolCallResponse("", PlotToolName, `{"query": "plot y against x"}`),
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    return px.scatter(df, x='x', y='y')")),
		textResponse("Here is the chart."),
	)
	runner := &fakeRunner{outputs: []string{
		okResult(`{"columns":["x","y"],"data":{"x":[4,6,8,10],"y":[8,9,7,10]}}`),
		okResult(scatterFigure),
	}}
	agent := NewTableAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	events := collect(agent.CallAgent(context.Background(), "keep rows where y > 5"))
	types := eventTypes(events)
	assert.Contains(t, types, TypeTableTransform)
	assert.Equal(t, TypeResponseCompleted, types[len(types)-1])

	// The router adopted the transformed table as canonical.
	require.Equal(t, 4, agent.Table().NumRows())

	events = collect(agent.CallAgent(context.Background(), "plot y against x"))
	types = eventTypes(events)
	assert.Contains(t, types, TypePlotGenerated)
	assert.Equal(t, TypeResponseCompleted, types[len(types)-1])

	// The plot ran against the transformed table, not the original one.
	require.Len(t, runner.requests, 2)
	plotArg := runner.requests[1]["args"].([]any)[0].(map[string]any)
	value := plotArg["value"].(map[string]any)
	data := value["data"].(map[string]any)
	assert.Len(t, data["x"].([]any), 4)
}

func TestRouterForwardsDelegateEvents(t *testing.T) {
	model := replayModel(t,
		toolCallResponse("", TransformToolName, `{"query": "drop y"}`),
		toolCallResponse("", TransformToolName, codeArgs(t, "def transform_table(df):\n    return df[['x']]")),
		textResponse("Dropped y."),
	)
	runner := &fakeRunner{outputs: []string{
		okResult(`{"columns":["x"],"data":{"x":[1,2,3]}}`),
	}}
	agent := NewTableAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	events := collect(agent.CallAgent(context.Background(), "drop y"))

	// The routed stream looks exactly like a direct delegate stream.
	assert.Equal(t, []string{
		TypeResponseCreated,
		TypeTableTransform,
		TypeTextDelta,
		TypeResponseCompleted,
	}, eventTypes(events))
	for _, ev := range events {
		assert.Equal(t, "table-transform", eventAgentName(t, ev))
	}
}

func eventAgentName(t *testing.T, ev Event) string {
	t.Helper()
	switch e := ev.(type) {
	case *ResponseCreatedEvent:
		return e.AgentName
	case *TextDeltaEvent:
		return e.AgentName
	case *TableTransformEvent:
		return e.AgentName
	case *PlotGeneratedEvent:
		return e.AgentName
	case *FunctionErrorEvent:
		return e.AgentName
	case *ErrorEvent:
		return e.AgentName
	case *ResponseCompletedEvent:
		return e.AgentName
	default:
		t.Fatalf("unexpected event type %T", ev)
		return ""
	}
}

func TestRouterClarificationTurn(t *testing.T) {
	model := replayModel(t, textResponse("Which column should I plot?"))
	agent := NewTableAgent(model, testTable(t), WithSandbox((&fakeRunner{}).sandbox()))

	events := collect(agent.CallAgent(context.Background(), "plot it"))

	require.Equal(t, []string{
		TypeResponseCreated,
		TypeTextDelta,
		TypeResponseCompleted,
	}, eventTypes(events))
	assert.Equal(t, "Which column should I plot?", events[1].(*TextDeltaEvent).Delta)
	assert.Equal(t, "table-router", eventAgentName(t, events[0]))
}

func TestRouterClarificationStaysInHistory(t *testing.T) {
	// A delegate turn after a clarification sees the clarification exchange.
	model := replayModel(t,
		textResponse("Which column?"),
		toolCallResponse("", TransformToolName, `{"query": "drop y"}`),
		toolCallResponse("", TransformToolName, codeArgs(t, "def transform_table(df):\n    return df[['x']]")),
		textResponse("Dropped y."),
	)
	runner := &fakeRunner{outputs: []string{
		okResult(`{"columns":["x"],"data":{"x":[1]}}`),
	}}
	agent := NewTableAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	_, err := agent.CallAndWait(context.Background(), "change it")
	require.NoError(t, err)
	text, err := agent.CallAndWait(context.Background(), "drop y")
	require.NoError(t, err)
	assert.Equal(t, "Dropped y.", text)
}

func TestRouterUnknownDelegateIsTerminal(t *testing.T) {
	model := replayModel(t,
		toolCallResponse("", "summon_wizard", `{"query": "abracadabra"}`),
	)
	agent := NewTableAgent(model, testTable(t), WithSandbox((&fakeRunner{}).sandbox()))

	events := collect(agent.CallAgent(context.Background(), "do magic"))

	require.Len(t, events, 2)
	assert.Equal(t, TypeResponseCreated, events[0].Type())
	assert.Equal(t, TypeError, events[1].Type())
	assert.ErrorContains(t, events[1].(*ErrorEvent).Err, "summon_wizard")
}

func TestRouterClassificationErrorIsTerminal(t *testing.T) {
	model := replayModel(t, replayError("rate limited"))
	agent := NewTableAgent(model, testTable(t), WithSandbox((&fakeRunner{}).sandbox()))

	_, err := agent.CallAndWait(context.Background(), "drop y")
	assert.ErrorContains(t, err, "rate limited")
}

func TestRouterNilContextUsesSessionContext(t *testing.T) {
	model := ai.NewDummyModel(func(ctx context.Context, m *ai.Model, messages []ai.Message, tools []ai.Tool) (ai.AIMessage, error) {
		if err := ctx.Err(); err != nil {
			return ai.AIMessage{}, err
		}
		return ai.AIMessage{Role: ai.AssistantRole, Content: "which column?"}, nil
	})
	session := NewSession(nil)
	agent := NewTableAgent(model, testTable(t),
		WithSession(session), WithSandbox((&fakeRunner{}).sandbox()))

	_, err := agent.CallAndWait(nil, "drop y")
	require.NoError(t, err)

	session.Cancel()
	_, err = agent.CallAndWait(nil, "drop y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouterToolsRequireQuery(t *testing.T) {
	tools := routerTools()
	require.Len(t, tools, 2)
	names := []string{tools[0].Name, tools[1].Name}
	assert.ElementsMatch(t, []string{TransformToolName, PlotToolName}, names)
	for _, tool := range tools {
		assert.Equal(t, []string{"query"}, tool.InputSchema["required"])
	}
}
