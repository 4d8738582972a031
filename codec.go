package tabular

import (
	"encoding/json"
	"errors"
	"fmt"
)

// envelope is the stored form of an event: the type tag plus the event's own
// JSON payload.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorPayload struct {
	RunID     string `json:"run_id"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// EncodeEvent serializes an event with its type tag so it can be stored and
// reconstructed later.
func EncodeEvent(ev Event) ([]byte, error) {
	var payload any = ev
	if e, ok := ev.(*ErrorEvent); ok {
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		payload = errorPayload{RunID: e.RunID, AgentName: e.AgentName, SessionID: e.SessionID, Message: msg}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", ev.Type(), err)
	}
	return json.Marshal(envelope{Type: ev.Type(), Payload: raw})
}

// eventDecoders maps each type tag to its constructor. The table is fixed at
// compile time; there is no runtime registration.
var eventDecoders = map[string]func(json.RawMessage) (Event, error){
	TypeResponseCreated:     decodeInto[ResponseCreatedEvent],
	TypeTextDelta:           decodeInto[TextDeltaEvent],
	TypeTableTransform:      decodeInto[TableTransformEvent],
	TypeMultiTableTransform: decodeInto[MultiTableTransformEvent],
	TypePlotGenerated:       decodeInto[PlotGeneratedEvent],
	TypeFunctionError:       decodeInto[FunctionErrorEvent],
	TypeError:               decodeError,
	TypeResponseCompleted:   decodeInto[ResponseCompletedEvent],
}

func decodeInto[E any](payload json.RawMessage) (Event, error) {
	ev := new(E)
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, err
	}
	return any(ev).(Event), nil
}

func decodeError(payload json.RawMessage) (Event, error) {
	var p errorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &ErrorEvent{
		RunID:     p.RunID,
		AgentName: p.AgentName,
		SessionID: p.SessionID,
		Err:       errors.New(p.Message),
	}, nil
}

// DecodeEvent reconstructs an event from its stored form.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid event envelope: %w", err)
	}
	decode, ok := eventDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
	return decode(env.Payload)
}
