package tabular

import (
	"errors"

	"github.com/nexxia-ai/tabular/artifact"
)

// Event identifies the typed progress events emitted during one agent turn.
// Every turn yields exactly one ResponseCreatedEvent first and ends with
// exactly one ResponseCompletedEvent or one terminal ErrorEvent.
//
// The caller will typically use a switch statement to handle the event type:
//
//	for event := range agent.CallAgent(ctx, "plot y against x") {
//		switch ev := event.(type) {
//		case *TextDeltaEvent:
//			fmt.Print(ev.Delta)
//		case *PlotGeneratedEvent:
//			render(ev.Figure)
//		case *ErrorEvent:
//			log.Println(ev.Err)
//		}
//	}
type Event interface {
	ID() string
	Type() string
}

// FunctionResultEvent is implemented by the domain-specific result events
// (table, multi-table, figure). The generated code is always carried with the
// artifact it produced.
type FunctionResultEvent interface {
	Event
	FunctionName() string
	GeneratedCode() string
}

// Event type tags. These form a closed set; decoding uses the fixed
// dispatch table in codec.go.
const (
	TypeResponseCreated     = "response.created"
	TypeTextDelta           = "text.delta"
	TypeTableTransform      = "function.result.table"
	TypeMultiTableTransform = "function.result.tables"
	TypePlotGenerated       = "function.result.figure"
	TypeFunctionError       = "function.error"
	TypeError               = "error"
	TypeResponseCompleted   = "response.completed"
)

type ResponseCreatedEvent struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
}

func (e *ResponseCreatedEvent) ID() string   { return e.RunID }
func (e *ResponseCreatedEvent) Type() string { return TypeResponseCreated }

type TextDeltaEvent struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
	Delta     string `json:"delta"`
}

func (e *TextDeltaEvent) ID() string   { return e.RunID }
func (e *TextDeltaEvent) Type() string { return TypeTextDelta }

// TableTransformEvent carries the table produced by a successful
// transform_table call.
type TableTransformEvent struct {
	RunID     string          `json:"run_id"`
	AgentName string          `json:"agent_name"`
	SessionID string          `json:"session_id"`
	Table     *artifact.Table `json:"table"`
	TableName string          `json:"table_name"`
	Code      string          `json:"code"`
}

func (e *TableTransformEvent) ID() string            { return e.RunID }
func (e *TableTransformEvent) Type() string          { return TypeTableTransform }
func (e *TableTransformEvent) FunctionName() string  { return TransformToolName }
func (e *TableTransformEvent) GeneratedCode() string { return e.Code }

// MultiTableTransformEvent carries the named-table set produced by a
// successful transform_tables call.
type MultiTableTransformEvent struct {
	RunID     string                     `json:"run_id"`
	AgentName string                     `json:"agent_name"`
	SessionID string                     `json:"session_id"`
	Tables    map[string]*artifact.Table `json:"tables"`
	Code      string                     `json:"code"`
}

func (e *MultiTableTransformEvent) ID() string            { return e.RunID }
func (e *MultiTableTransformEvent) Type() string          { return TypeMultiTableTransform }
func (e *MultiTableTransformEvent) FunctionName() string  { return MultiTransformToolName }
func (e *MultiTableTransformEvent) GeneratedCode() string { return e.Code }

// PlotGeneratedEvent carries the figure produced by a successful
// generate_plot call.
type PlotGeneratedEvent struct {
	RunID     string           `json:"run_id"`
	AgentName string           `json:"agent_name"`
	SessionID string           `json:"session_id"`
	Figure    *artifact.Figure `json:"figure"`
	Code      string           `json:"code"`
}

func (e *PlotGeneratedEvent) ID() string            { return e.RunID }
func (e *PlotGeneratedEvent) Type() string          { return TypePlotGenerated }
func (e *PlotGeneratedEvent) FunctionName() string  { return PlotToolName }
func (e *PlotGeneratedEvent) GeneratedCode() string { return e.Code }

// FunctionErrorEvent reports a recoverable execution failure. The message is
// the short user-facing description; the full stack trace stays in the
// model-facing history only.
type FunctionErrorEvent struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (e *FunctionErrorEvent) ID() string   { return e.RunID }
func (e *FunctionErrorEvent) Type() string { return TypeFunctionError }

// ErrorEvent terminates a turn. No further events follow it.
type ErrorEvent struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
	Err       error  `json:"-"`
}

func (e *ErrorEvent) ID() string   { return e.RunID }
func (e *ErrorEvent) Type() string { return TypeError }

type ResponseCompletedEvent struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
}

func (e *ResponseCompletedEvent) ID() string   { return e.RunID }
func (e *ResponseCompletedEvent) Type() string { return TypeResponseCompleted }

var (
	_ FunctionResultEvent = (*TableTransformEvent)(nil)
	_ FunctionResultEvent = (*MultiTableTransformEvent)(nil)
	_ FunctionResultEvent = (*PlotGeneratedEvent)(nil)
)

// ErrUnknownEventType is returned when decoding an event whose tag is not in
// the closed set.
var ErrUnknownEventType = errors.New("unknown event type")
