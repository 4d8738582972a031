package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scatterFigure = `{
	"data": [{"type": "scatter", "mode": "markers", "x": [1,2,3,4,5,6,7,8,9,10], "y": [2,4,1,8,6,9,3,7,5,10]}],
	"layout": {"title": {"text": "y vs x"}}
}`

const redScatterFigure = `{
	"data": [{"type": "scatter", "mode": "markers", "marker": {"color": "red"}, "x": [1,2,3,4,5,6,7,8,9,10], "y": [2,4,1,8,6,9,3,7,5,10]}],
	"layout": {"title": {"text": "y vs x"}}
}`

func TestGeneratePlotScatter(t *testing.T) {
	code := "def generate_plot(df):\n    import plotly.express as px\n    return px.scatter(df, x='x', y='y')"
	model := replayModel(t,
		toolCallResponse("", PlotToolName, codeArgs(t, code)),
		textResponse("Here is a scatter plot of y against x."),
	)
	runner := &fakeRunner{outputs: []string{okResult(scatterFigure)}}
	agent := NewPlotAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	events := collect(agent.GeneratePlotStream(context.Background(), "plot y against x"))

	assert.Equal(t, []string{
		TypeResponseCreated,
		TypePlotGenerated,
		TypeTextDelta,
		TypeResponseCompleted,
	}, eventTypes(events))

	plot := events[1].(*PlotGeneratedEvent)
	assert.Equal(t, code, plot.GeneratedCode())
	require.Len(t, plot.Figure.Data, 1)
	trace := plot.Figure.Data[0]
	assert.Equal(t, "scatter", trace.Type)
	assert.Equal(t, "markers", trace.Mode)
	assert.Len(t, trace.X, 10)
	assert.Len(t, trace.Y, 10)

	// The generated code references both columns of the table.
	assert.Contains(t, plot.Code, "'x'")
	assert.Contains(t, plot.Code, "'y'")

	assert.Same(t, plot.Figure, agent.Figure())
}

func TestPlotExecutionRequest(t *testing.T) {
	model := replayModel(t,
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    return None")),
		textResponse("done"),
	)
	runner := &fakeRunner{outputs: []string{okResult(scatterFigure)}}
	agent := NewPlotAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	_, err := agent.CallAndWait(context.Background(), "plot it")
	require.NoError(t, err)
	require.Len(t, runner.requests, 1)

	request := runner.requests[0]
	assert.Equal(t, PlotToolName, request["entry"])
	assert.Equal(t, "figure", request["return"])
	assert.Equal(t, map[string]any{
		"pd": "pandas",
		"px": "plotly.express",
		"go": "plotly.graph_objects",
	}, request["namespace"])
}

func TestPlotFollowUpChangesMarkerColor(t *testing.T) {
	model := replayModel(t,
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    return px.scatter(df, x='x', y='y')")),
		textResponse("Done."),
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    fig = px.scatter(df, x='x', y='y')\n    fig.update_traces(marker_color='red')\n    return fig")),
		textResponse("Changed the markers to red."),
	)
	runner := &fakeRunner{outputs: []string{
		okResult(scatterFigure),
		okResult(redScatterFigure),
	}}
	history := NewHistory()
	agent := NewPlotAgent(model, testTable(t),
		WithSandbox(runner.sandbox()), WithHistory(history))

	_, err := agent.CallAndWait(context.Background(), "plot y against x")
	require.NoError(t, err)

	first := agent.Figure()
	require.NotNil(t, first)
	_, hasColor := first.Data[0].MarkerColor()
	assert.False(t, hasColor)

	_, err = agent.CallAndWait(context.Background(), "make the markers red")
	require.NoError(t, err)

	second := agent.Figure()
	require.NotNil(t, second)
	color, hasColor := second.Data[0].MarkerColor()
	require.True(t, hasColor)
	assert.Equal(t, "red", color)

	// The second turn saw the first turn's conversation.
	require.Greater(t, history.Len(), 4)
}

func TestPlotFailureFeedsTracebackToModel(t *testing.T) {
	model := replayModel(t,
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    return px.scatter(df, x='nope', y='y')")),
		toolCallResponse("", PlotToolName, codeArgs(t, "def generate_plot(df):\n    return px.scatter(df, x='x', y='y')")),
		textResponse("done"),
	)
	runner := &fakeRunner{outputs: []string{
		failResult("ValueError: Value of 'x' is not the name of a column", "Traceback (most recent call last):\nValueError"),
		okResult(scatterFigure),
	}}
	agent := NewPlotAgent(model, testTable(t), WithSandbox(runner.sandbox()))

	events := collect(agent.CallAgent(context.Background(), "plot nope against y"))

	types := eventTypes(events)
	assert.Contains(t, types, TypeFunctionError)
	assert.Contains(t, types, TypePlotGenerated)
	assert.Equal(t, TypeResponseCompleted, types[len(types)-1])
	assert.NotNil(t, agent.Figure())
}

func TestPlotSystemPromptDescribesTable(t *testing.T) {
	prompt := plotSystemPrompt(testTable(t))
	assert.Contains(t, prompt, PlotToolName)
	assert.Contains(t, prompt, "plotly figure")
	assert.Contains(t, prompt, "x, y")
}
