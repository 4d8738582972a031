package tabular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nexxia-ai/tabular/ai"
	"github.com/nexxia-ai/tabular/sandbox"
)

// maxExecutionAttempts bounds automatic recovery: a failed execution is
// retried once with the stack trace fed back to the model, and a second
// failure of any kind is terminal. Unbounded retries risk infinite loops
// against a non-deterministic model.
const maxExecutionAttempts = 2

// errStopIteration aborts an in-flight model stream when the consumer stops
// pulling events. The turn is abandoned, not failed.
var errStopIteration = errors.New("consumer stopped iterating")

// eventMeta carries the identifiers every event of a turn shares.
type eventMeta struct {
	runID     string
	agentName string
	sessionID string
}

// executeFunc runs one function call requested by the model. It returns the
// domain result event, a short transcript for the model-facing history, and
// an error. A *sandbox.CodeError is recoverable (the loop retries once); any
// other error terminates the turn.
type executeFunc func(ctx context.Context, meta eventMeta, call ai.ToolCall, args map[string]any) (FunctionResultEvent, string, error)

// functionLoop drives one conversational turn with the model: it sends the
// running history plus the agent's function schemas, streams narrative text
// as it arrives, executes requested function calls, and recovers from
// execution failures at most once per turn.
//
// The loop is pull-based: the producer only advances when the consumer
// requests the next event. There are no background goroutines; waiting on
// the model and waiting on the sandbox both happen on the consumer's
// goroutine. The loop enforces no wall-clock limits of its own - a caller
// needing timeouts wraps ctx.
type functionLoop struct {
	agentName    string
	session      *Session
	model        *ai.Model
	logger       *slog.Logger
	trace        *Trace
	history      *History
	systemPrompt func() string
	tools        func() []ai.Tool
	execute      executeFunc
}

// callAgent consumes one turn. The returned sequence is finite and not
// restartable; each call extends the agent's history. All failure is
// expressed as events - the iterator never panics on model or execution
// errors. A nil ctx falls back to the session context, so cancelling the
// session stops the turn.
func (l *functionLoop) callAgent(ctx context.Context, query string) iter.Seq[Event] {
	if ctx == nil {
		ctx = l.session.Context
	}
	return func(yield func(Event) bool) {
		t := &turn{
			loop:  l,
			meta:  eventMeta{runID: uuid.New().String(), agentName: l.agentName, sessionID: l.session.ID},
			yield: yield,
		}
		t.run(ctx, query)
	}
}

// turn is the per-invocation state of the loop.
type turn struct {
	loop    *functionLoop
	meta    eventMeta
	yield   func(Event) bool
	created bool
	stopped bool
}

func (t *turn) send(ev Event) bool {
	if t.stopped {
		return false
	}
	if !t.yield(ev) {
		t.stopped = true
		return false
	}
	return true
}

// ensureCreated emits the single ResponseCreatedEvent that opens every turn.
func (t *turn) ensureCreated() bool {
	if t.created {
		return !t.stopped
	}
	t.created = true
	return t.send(&ResponseCreatedEvent{RunID: t.meta.runID, AgentName: t.meta.agentName, SessionID: t.meta.sessionID})
}

func (t *turn) emit(ev Event) bool {
	return t.ensureCreated() && t.send(ev)
}

func (t *turn) completed() {
	t.emit(&ResponseCompletedEvent{RunID: t.meta.runID, AgentName: t.meta.agentName, SessionID: t.meta.sessionID})
}

func (t *turn) terminalError(err error) {
	t.loop.logger.Error("terminating turn", "agent", t.meta.agentName, "error", err)
	t.emit(&ErrorEvent{RunID: t.meta.runID, AgentName: t.meta.agentName, SessionID: t.meta.sessionID, Err: err})
}

// streamModel makes one model call with the current history, emitting a
// TextDeltaEvent per narrative chunk in arrival order.
func (t *turn) streamModel(ctx context.Context, tools []ai.Tool) (ai.AIMessage, error) {
	l := t.loop
	msgs := l.buildMessages()
	resp, err := l.model.Stream(ctx, msgs, tools, func(chunk ai.AIMessage) error {
		if chunk.Content == "" {
			return nil
		}
		if !t.emit(&TextDeltaEvent{RunID: t.meta.runID, AgentName: t.meta.agentName, SessionID: t.meta.sessionID, Delta: chunk.Content}) {
			return errStopIteration
		}
		return nil
	})
	if l.trace != nil {
		l.trace.RecordExchange(t.meta.runID, t.meta.agentName, msgs, resp, err)
	}
	return resp, err
}

func (l *functionLoop) buildMessages() []ai.Message {
	var msgs []ai.Message
	if l.systemPrompt != nil {
		if prompt := l.systemPrompt(); prompt != "" {
			msgs = append(msgs, ai.SystemMessage{Role: ai.SystemRole, Content: prompt})
		}
	}
	return append(msgs, l.history.Messages()...)
}

func (t *turn) run(ctx context.Context, query string) {
	l := t.loop
	l.history.Append(ai.UserMessage{Role: ai.UserRole, Content: query})

	resp, err := t.streamModel(ctx, l.tools())
	if err != nil {
		if errors.Is(err, errStopIteration) {
			return
		}
		t.terminalError(err)
		return
	}

	attempts := 0
	for {
		if t.stopped {
			return
		}

		// No function call: this was a plain narrative response.
		if len(resp.ToolCalls) == 0 {
			l.history.Append(resp)
			t.completed()
			return
		}

		// The function call takes precedence; any accompanying text was
		// already streamed as deltas.
		call := resp.ToolCalls[0]
		args, parseErr := parseCallArgs(call.Args)
		if parseErr != nil {
			// Terminal, but the assistant tool-call message still needs a
			// paired tool result so the next turn's history is well formed.
			failErr := fmt.Errorf("invalid arguments for function %s: %w", call.Name, parseErr)
			l.history.Append(resp, ai.ToolMessage{
				Role:       ai.ToolRole,
				Content:    failErr.Error(),
				ToolCallID: call.ID,
				ToolName:   call.Name,
				IsError:    true,
			})
			t.terminalError(failErr)
			return
		}

		attempts++
		result, transcript, execErr := l.execute(ctx, t.meta, call, args)

		var codeErr *sandbox.CodeError
		switch {
		case execErr == nil:
			l.history.Append(resp, ai.ToolMessage{
				Role:       ai.ToolRole,
				Content:    transcript,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
			if !t.emit(result) {
				return
			}
			// Follow-up completion so the model can produce closing
			// narrative. No tools are offered: one function call per turn.
			final, err := t.streamModel(ctx, nil)
			if err != nil {
				if errors.Is(err, errStopIteration) {
					return
				}
				t.terminalError(err)
				return
			}
			l.history.Append(final)
			t.completed()
			return

		case errors.As(execErr, &codeErr):
			// The model-facing history gets the full stack trace; the
			// user-facing event only the short message.
			l.history.Append(resp, ai.ToolMessage{
				Role:       ai.ToolRole,
				Content:    codeErr.StackTrace,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				IsError:    true,
			})
			if attempts >= maxExecutionAttempts {
				t.terminalError(codeErr)
				return
			}
			if !t.emit(&FunctionErrorEvent{RunID: t.meta.runID, AgentName: t.meta.agentName, SessionID: t.meta.sessionID, Message: codeErr.Message}) {
				return
			}
			l.logger.Warn("generated code failed, retrying once", "function", call.Name, "error", codeErr.Message)
			resp, err = t.streamModel(ctx, l.tools())
			if err != nil {
				if errors.Is(err, errStopIteration) {
					return
				}
				t.terminalError(err)
				return
			}

		default:
			l.history.Append(resp, ai.ToolMessage{
				Role:       ai.ToolRole,
				Content:    execErr.Error(),
				ToolCallID: call.ID,
				ToolName:   call.Name,
				IsError:    true,
			})
			t.terminalError(execErr)
			return
		}
	}
}

func parseCallArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// Drain fully consumes a turn's event stream and returns the concatenated
// narrative text plus the terminal error, if the turn ended in one.
func Drain(events iter.Seq[Event]) (string, error) {
	var text strings.Builder
	var err error
	for ev := range events {
		switch e := ev.(type) {
		case *TextDeltaEvent:
			text.WriteString(e.Delta)
		case *ErrorEvent:
			err = e.Err
		}
	}
	return text.String(), err
}
