package tabular

import (
	"encoding/json"
	"fmt"

	"github.com/nexxia-ai/tabular/artifact"
	"github.com/nexxia-ai/tabular/sandbox"
)

// The decode helpers turn a sandbox result payload back into a typed
// artifact. A payload that does not match the expected shape is treated as a
// recoverable execution failure: the generated code returned the wrong kind
// of value, and the model gets a chance to correct it.

func decodeTable(payload json.RawMessage) (*artifact.Table, error) {
	var table artifact.Table
	if err := json.Unmarshal(payload, &table); err != nil {
		return nil, decodeFailure("a dataframe", payload, err)
	}
	return &table, nil
}

func decodeTables(payload json.RawMessage) (map[string]*artifact.Table, error) {
	var tables map[string]*artifact.Table
	if err := json.Unmarshal(payload, &tables); err != nil {
		return nil, decodeFailure("a dict of dataframes", payload, err)
	}
	return tables, nil
}

func decodeFigure(payload json.RawMessage) (*artifact.Figure, error) {
	var figure artifact.Figure
	if err := json.Unmarshal(payload, &figure); err != nil {
		return nil, decodeFailure("a plotly figure", payload, err)
	}
	return &figure, nil
}

func decodeFailure(expected string, payload json.RawMessage, err error) *sandbox.CodeError {
	return &sandbox.CodeError{
		Message:    fmt.Sprintf("executed code did not return %s: %v", expected, err),
		StackTrace: fmt.Sprintf("decode error: %v\npayload: %s", err, payload),
	}
}
