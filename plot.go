package tabular

import (
	"context"
	"fmt"
	"iter"

	"github.com/nexxia-ai/tabular/ai"
	"github.com/nexxia-ai/tabular/artifact"
	"github.com/nexxia-ai/tabular/sandbox"
)

// PlotToolName is the function the model calls to generate a chart. The
// generated code must define an entry point with this name that returns a
// plotly figure.
const PlotToolName = "generate_plot"

// PlotAgent turns chart requests into generated plotly code, executes it
// against the current table, and streams the figure back as a
// PlotGeneratedEvent. Follow-up turns ("make the markers red") resolve
// against the figure produced by the most recent successful turn through the
// agent's conversation history.
type PlotAgent struct {
	loop   *functionLoop
	box    *sandbox.Sandbox
	ns     sandbox.Namespace
	table  *artifact.Table
	figure *artifact.Figure
}

func NewPlotAgent(model *ai.Model, table *artifact.Table, opts ...Option) *PlotAgent {
	o := newAgentOptions("plot", opts...)
	ns := o.namespace
	if ns == nil {
		ns = sandbox.PlotNamespace()
	}
	a := &PlotAgent{box: o.box, ns: ns, table: table}
	a.loop = &functionLoop{
		agentName:    o.name,
		session:      o.session,
		model:        model,
		logger:       o.logger,
		trace:        o.trace,
		history:      o.history,
		systemPrompt: func() string { return plotSystemPrompt(a.table) },
		tools:        func() []ai.Tool { return []ai.Tool{plotTool()} },
		execute:      a.execute,
	}
	return a
}

func plotTool() ai.Tool {
	return ai.CodeTool(
		PlotToolName,
		"Generate a plotly chart over the current dataframe with generated python code.",
		"Python code defining def generate_plot(df) that returns a plotly figure.",
		nil,
	)
}

// CallAgent consumes one turn. Same contract as TransformAgent.CallAgent.
func (a *PlotAgent) CallAgent(ctx context.Context, query string) iter.Seq[Event] {
	return a.loop.callAgent(ctx, query)
}

// GeneratePlotStream is an alias for CallAgent kept for callers that read
// better with a plotting verb.
func (a *PlotAgent) GeneratePlotStream(ctx context.Context, query string) iter.Seq[Event] {
	return a.CallAgent(ctx, query)
}

// CallAndWait runs one turn to completion and returns the closing narrative.
func (a *PlotAgent) CallAndWait(ctx context.Context, query string) (string, error) {
	return Drain(a.CallAgent(ctx, query))
}

// Figure returns the figure produced by the most recent successful turn.
func (a *PlotAgent) Figure() *artifact.Figure {
	return a.figure
}

// Table returns the table charts are generated against.
func (a *PlotAgent) Table() *artifact.Table {
	return a.table
}

// SetTable replaces the table charts are generated against. The router uses
// this to push its canonical table into the delegate before a turn.
func (a *PlotAgent) SetTable(table *artifact.Table) {
	a.table = table
}

func (a *PlotAgent) execute(ctx context.Context, meta eventMeta, call ai.ToolCall, args map[string]any) (FunctionResultEvent, string, error) {
	if call.Name != PlotToolName {
		return nil, "", fmt.Errorf("model requested unknown function %q", call.Name)
	}
	code, _ := args["code"].(string)
	if code == "" {
		return nil, "", fmt.Errorf("function call %s is missing the code argument", call.Name)
	}

	result := a.box.Execute(ctx, sandbox.Invocation{
		Code:       code,
		EntryPoint: PlotToolName,
		Args:       []sandbox.Arg{{Name: "df", Kind: sandbox.KindTable, Value: a.table}},
		Return:     sandbox.KindFigure,
	}, a.ns)
	if result.Err != nil {
		return nil, "", result.Err
	}

	figure, err := decodeFigure(result.Value)
	if err != nil {
		return nil, "", err
	}
	a.figure = figure

	transcript := fmt.Sprintf("generate_plot succeeded: figure with %d trace(s)", len(figure.Data))
	event := &PlotGeneratedEvent{
		RunID:     meta.runID,
		AgentName: meta.agentName,
		SessionID: meta.sessionID,
		Figure:    figure,
		Code:      code,
	}
	return event, transcript, nil
}
