package tabular

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nexxia-ai/tabular/ai"
	"github.com/nexxia-ai/tabular/artifact"
)

// routerDelegate is the slice of the specialized-agent surface the router
// needs: run a turn, and accept the canonical table before it.
type routerDelegate interface {
	CallAgent(ctx context.Context, query string) iter.Seq[Event]
	SetTable(table *artifact.Table)
}

// TableAgent is a thin dispatcher over the transform and plot agents. It
// classifies the turn's intent with the same function-calling mechanism the
// specialized agents use - its functions are delegate invocations rather
// than code execution - and forwards the chosen delegate's event stream to
// its caller unchanged, so a routed call is indistinguishable from a direct
// one.
//
// The router owns the canonical current table. Before each delegation it
// pushes that table into the delegate, and after a successful transform it
// adopts the transformed table, so a plot request in the next turn operates
// on the transformed data even though a different delegate handles it. All
// delegates share one conversation history, so context carries across
// delegate switches.
type TableAgent struct {
	name      string
	model     *ai.Model
	session   *Session
	logger    *slog.Logger
	trace     *Trace
	history   *History
	table     *artifact.Table
	transform *TransformAgent
	plot      *PlotAgent
}

func NewTableAgent(model *ai.Model, table *artifact.Table, opts ...Option) *TableAgent {
	o := newAgentOptions("table-router", opts...)
	a := &TableAgent{
		name:    o.name,
		model:   model,
		session: o.session,
		logger:  o.logger,
		trace:   o.trace,
		history: o.history,
		table:   table,
	}

	shared := []Option{
		WithSession(o.session),
		WithLogger(o.logger),
		WithSandbox(o.box),
		WithHistory(o.history),
		WithTrace(o.trace),
	}
	if o.namespace != nil {
		shared = append(shared, WithNamespace(o.namespace))
	}
	a.transform = NewTransformAgent(model, table, append(shared, WithName("table-transform"))...)
	a.plot = NewPlotAgent(model, table, append(shared, WithName("plot"))...)
	return a
}

func routerTools() []ai.Tool {
	querySchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The user's request, passed through to the specialist.",
			},
		},
		"required": []string{"query"},
	}
	return []ai.Tool{
		{
			Name:        TransformToolName,
			Description: "Change, filter, aggregate or reshape the current dataframe.",
			InputSchema: querySchema,
		},
		{
			Name:        PlotToolName,
			Description: "Create a chart, or adjust the previously created chart.",
			InputSchema: querySchema,
		},
	}
}

// Table returns the canonical current table.
func (a *TableAgent) Table() *artifact.Table {
	return a.table
}

// CallAgent classifies the turn and forwards the chosen delegate's event
// stream verbatim. Delegate errors propagate unchanged; the router adds no
// retry layer of its own. A nil ctx falls back to the session context.
func (a *TableAgent) CallAgent(ctx context.Context, query string) iter.Seq[Event] {
	if ctx == nil {
		ctx = a.session.Context
	}
	return func(yield func(Event) bool) {
		meta := eventMeta{runID: uuid.New().String(), agentName: a.name, sessionID: a.session.ID}

		msgs := []ai.Message{ai.SystemMessage{Role: ai.SystemRole, Content: routerSystemPrompt(a.table)}}
		msgs = append(msgs, a.history.Messages()...)
		msgs = append(msgs, ai.UserMessage{Role: ai.UserRole, Content: query})

		resp, err := a.model.Call(ctx, msgs, routerTools())
		if a.trace != nil {
			a.trace.RecordExchange(meta.runID, a.name, msgs, resp, err)
		}
		if err != nil {
			a.emitTerminal(yield, meta, fmt.Errorf("intent classification failed: %w", err))
			return
		}

		if len(resp.ToolCalls) == 0 {
			// Clarification or no-op: stream the router's own text turn.
			a.history.Append(ai.UserMessage{Role: ai.UserRole, Content: query}, resp)
			if !yield(&ResponseCreatedEvent{RunID: meta.runID, AgentName: meta.agentName, SessionID: meta.sessionID}) {
				return
			}
			if resp.Content != "" {
				if !yield(&TextDeltaEvent{RunID: meta.runID, AgentName: meta.agentName, SessionID: meta.sessionID, Delta: resp.Content}) {
					return
				}
			}
			yield(&ResponseCompletedEvent{RunID: meta.runID, AgentName: meta.agentName, SessionID: meta.sessionID})
			return
		}

		call := resp.ToolCalls[0]
		var delegate routerDelegate
		switch call.Name {
		case TransformToolName:
			delegate = a.transform
		case PlotToolName:
			delegate = a.plot
		default:
			a.emitTerminal(yield, meta, fmt.Errorf("classification requested unknown delegate %q", call.Name))
			return
		}

		delegatedQuery := query
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Args), &args); err == nil && args.Query != "" {
			delegatedQuery = args.Query
		}

		a.logger.Debug("delegating turn", "delegate", call.Name, "query", delegatedQuery)

		// Push the canonical table into the delegate, then adopt any table
		// it produces. The adoption happens as the event is forwarded, so
		// the canonical state is current before the next delegation reads
		// it.
		delegate.SetTable(a.table)
		for ev := range delegate.CallAgent(ctx, delegatedQuery) {
			if transform, ok := ev.(*TableTransformEvent); ok {
				a.table = transform.Table
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// CallAndWait runs one turn to completion and returns the closing narrative.
func (a *TableAgent) CallAndWait(ctx context.Context, query string) (string, error) {
	return Drain(a.CallAgent(ctx, query))
}

func (a *TableAgent) emitTerminal(yield func(Event) bool, meta eventMeta, err error) {
	a.logger.Error("terminating turn", "agent", a.name, "error", err)
	if !yield(&ResponseCreatedEvent{RunID: meta.runID, AgentName: meta.agentName, SessionID: meta.sessionID}) {
		return
	}
	yield(&ErrorEvent{RunID: meta.runID, AgentName: meta.agentName, SessionID: meta.sessionID, Err: err})
}
