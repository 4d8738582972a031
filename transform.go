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

// TransformToolName is the function the model calls to run a dataframe
// transform. The generated code must define an entry point with this name.
const TransformToolName = "transform_table"

// TransformAgent turns natural-language requests about a single table into
// generated pandas code, executes it, and streams the resulting table back as
// a TableTransformEvent.
type TransformAgent struct {
	loop  *functionLoop
	box   *sandbox.Sandbox
	ns    sandbox.Namespace
	table *artifact.Table
}

func NewTransformAgent(model *ai.Model, table *artifact.Table, opts ...Option) *TransformAgent {
	o := newAgentOptions("table-transform", opts...)
	ns := o.namespace
	if ns == nil {
		ns = sandbox.TableNamespace()
	}
	a := &TransformAgent{box: o.box, ns: ns, table: table}
	a.loop = &functionLoop{
		agentName:    o.name,
		session:      o.session,
		model:        model,
		logger:       o.logger,
		trace:        o.trace,
		history:      o.history,
		systemPrompt: func() string { return transformSystemPrompt(a.table) },
		tools:        func() []ai.Tool { return []ai.Tool{transformTool()} },
		execute:      a.execute,
	}
	return a
}

func transformTool() ai.Tool {
	return ai.CodeTool(
		TransformToolName,
		"Transform the current dataframe with generated pandas code.",
		"Python code defining def transform_table(df) that returns the transformed dataframe.",
		map[string]string{
			"table_name": "Optional human-readable name for the resulting table.",
		},
	)
}

// CallAgent consumes one turn. The sequence is finite, pull-based and not
// restartable; the caller must drain it to finalize the turn's history.
func (a *TransformAgent) CallAgent(ctx context.Context, query string) iter.Seq[Event] {
	return a.loop.callAgent(ctx, query)
}

// CallAndWait runs one turn to completion and returns the closing narrative.
func (a *TransformAgent) CallAndWait(ctx context.Context, query string) (string, error) {
	return Drain(a.CallAgent(ctx, query))
}

// Table returns the current table: the artifact produced by the most recent
// successful transform, or the initial table.
func (a *TransformAgent) Table() *artifact.Table {
	return a.table
}

// SetTable replaces the current table. The router uses this to push its
// canonical table into the delegate before a turn.
func (a *TransformAgent) SetTable(table *artifact.Table) {
	a.table = table
}

func (a *TransformAgent) execute(ctx context.Context, meta eventMeta, call ai.ToolCall, args map[string]any) (FunctionResultEvent, string, error) {
	if call.Name != TransformToolName {
		return nil, "", fmt.Errorf("model requested unknown function %q", call.Name)
	}
	code, _ := args["code"].(string)
	if code == "" {
		return nil, "", fmt.Errorf("function call %s is missing the code argument", call.Name)
	}
	tableName := a.table.Name
	if v, ok := args["table_name"].(string); ok && v != "" {
		tableName = v
	}

	result := a.box.Execute(ctx, sandbox.Invocation{
		Code:       code,
		EntryPoint: TransformToolName,
		Args:       []sandbox.Arg{{Name: "df", Kind: sandbox.KindTable, Value: a.table}},
		Return:     sandbox.KindTable,
	}, a.ns)
	if result.Err != nil {
		return nil, "", result.Err
	}

	table, err := decodeTable(result.Value)
	if err != nil {
		return nil, "", err
	}
	table.Name = tableName
	a.table = table

	transcript := fmt.Sprintf("transform_table succeeded: table %q now has %d rows and columns %s",
		tableName, table.NumRows(), strings.Join(table.Columns, ", "))
	event := &TableTransformEvent{
		RunID:     meta.runID,
		AgentName: meta.agentName,
		SessionID: meta.sessionID,
		Table:     table,
		TableName: tableName,
		Code:      code,
	}
	return event, transcript, nil
}
