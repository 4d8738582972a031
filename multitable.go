package tabular

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/nexxia-ai/tabular/ai"
	"github.com/nexxia-ai/tabular/artifact"
	"github.com/nexxia-ai/tabular/sandbox"
)

// MultiTransformToolName is the function the model calls to transform a set
// of named tables in one step (joins, reshapes across tables).
const MultiTransformToolName = "transform_tables"

// MultiTableAgent is the multi-table variant of TransformAgent: generated
// code receives a dict of named dataframes and returns a dict of the same
// shape.
type MultiTableAgent struct {
	loop   *functionLoop
	box    *sandbox.Sandbox
	ns     sandbox.Namespace
	tables map[string]*artifact.Table
}

func NewMultiTableAgent(model *ai.Model, tables map[string]*artifact.Table, opts ...Option) *MultiTableAgent {
	o := newAgentOptions("multi-table-transform", opts...)
	ns := o.namespace
	if ns == nil {
		ns = sandbox.TableNamespace()
	}
	a := &MultiTableAgent{box: o.box, ns: ns, tables: tables}
	a.loop = &functionLoop{
		agentName:    o.name,
		session:      o.session,
		model:        model,
		logger:       o.logger,
		trace:        o.trace,
		history:      o.history,
		systemPrompt: func() string { return multiTableSystemPrompt(a.tables) },
		tools:        func() []ai.Tool { return []ai.Tool{multiTransformTool()} },
		execute:      a.execute,
	}
	return a
}

func multiTransformTool() ai.Tool {
	return ai.CodeTool(
		MultiTransformToolName,
		"Transform the named dataframes with generated pandas code.",
		"Python code defining def transform_tables(tables) that returns a dict mapping table name to dataframe.",
		nil,
	)
}

// CallAgent consumes one turn. Same contract as TransformAgent.CallAgent.
func (a *MultiTableAgent) CallAgent(ctx context.Context, query string) iter.Seq[Event] {
	return a.loop.callAgent(ctx, query)
}

// CallAndWait runs one turn to completion and returns the closing narrative.
func (a *MultiTableAgent) CallAndWait(ctx context.Context, query string) (string, error) {
	return Drain(a.CallAgent(ctx, query))
}

// Tables returns the current named-table set.
func (a *MultiTableAgent) Tables() map[string]*artifact.Table {
	return a.tables
}

func (a *MultiTableAgent) SetTables(tables map[string]*artifact.Table) {
	a.tables = tables
}

func (a *MultiTableAgent) execute(ctx context.Context, meta eventMeta, call ai.ToolCall, args map[string]any) (FunctionResultEvent, string, error) {
	if call.Name != MultiTransformToolName {
		return nil, "", fmt.Errorf("model requested unknown function %q", call.Name)
	}
	code, _ := args["code"].(string)
	if code == "" {
		return nil, "", fmt.Errorf("function call %s is missing the code argument", call.Name)
	}

	result := a.box.Execute(ctx, sandbox.Invocation{
		Code:       code,
		EntryPoint: MultiTransformToolName,
		Args:       []sandbox.Arg{{Name: "tables", Kind: sandbox.KindTables, Value: a.tables}},
		Return:     sandbox.KindTables,
	}, a.ns)
	if result.Err != nil {
		return nil, "", result.Err
	}

	tables, err := decodeTables(result.Value)
	if err != nil {
		return nil, "", err
	}
	for name, table := range tables {
		table.Name = name
	}
	a.tables = tables

	transcript := fmt.Sprintf("transform_tables succeeded: tables %s",
		strings.Join(artifact.SortedNames(tables), ", "))
	event := &MultiTableTransformEvent{
		RunID:     meta.runID,
		AgentName: meta.agentName,
		SessionID: meta.sessionID,
		Tables:    tables,
		Code:      code,
	}
	return event, transcript, nil
}
