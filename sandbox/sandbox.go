// Package sandbox executes a single generated code snippet against a
// caller-supplied execution namespace and converts any failure into a
// structured CodeError carrying both a short message and the full trace.
//
// The sandbox is one pure attempt: it never retries. Retry policy belongs to
// the agent loop that calls it.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Namespace maps the symbols generated code may reference to the python
// modules they resolve to, e.g. {"pd": "pandas"}. Symbols not listed here are
// simply absent from the execution globals, so code referencing them fails
// with a NameError. Callers override the namespace to control what generated
// code can touch; tests omit a symbol to induce execution failures.
type Namespace map[string]string

// TableNamespace is the default namespace for dataframe transforms.
func TableNamespace() Namespace {
	return Namespace{"pd": "pandas"}
}

// PlotNamespace is the default namespace for chart generation.
func PlotNamespace() Namespace {
	return Namespace{
		"pd": "pandas",
		"px": "plotly.express",
		"go": "plotly.graph_objects",
	}
}

// ArtifactKind selects the codec used to move an artifact across the
// process boundary.
type ArtifactKind string

const (
	KindTable  ArtifactKind = "table"
	KindTables ArtifactKind = "tables"
	KindFigure ArtifactKind = "figure"
)

// Arg is one artifact passed to the entry point, in declaration order.
type Arg struct {
	Name  string       `json:"name"`
	Kind  ArtifactKind `json:"kind"`
	Value any          `json:"value"`
}

// Invocation binds a generated code snippet to the entry point it is
// expected to define and the artifacts it is called with.
type Invocation struct {
	Code       string       `json:"code"`
	EntryPoint string       `json:"entry"`
	Args       []Arg        `json:"args"`
	Return     ArtifactKind `json:"return"`
}

// CodeError is a structured execution failure. Message is the short
// user-facing description; StackTrace is the full formatted trace and is what
// the agent loop feeds back to the model when re-prompting.
type CodeError struct {
	Message    string
	StackTrace string
}

func (e *CodeError) Error() string { return e.Message }

// Result is the outcome of one execution attempt. Exactly one of Value and
// Err is populated.
type Result struct {
	Value json.RawMessage
	Err   *CodeError
}

func (r Result) OK() bool { return r.Err == nil }

// Runner executes a harness script with the given stdin payload and returns
// its stdout and stderr. The default runner shells out to a python
// interpreter; tests substitute fakes.
type Runner func(ctx context.Context, script string, stdin []byte) (stdout, stderr []byte, err error)

type Sandbox struct {
	runner Runner
}

// New returns a sandbox backed by the default python3 subprocess runner.
func New() *Sandbox {
	return &Sandbox{runner: PythonRunner("")}
}

// NewWithRunner returns a sandbox backed by a custom runner.
func NewWithRunner(runner Runner) *Sandbox {
	return &Sandbox{runner: runner}
}

type harnessRequest struct {
	Code      string            `json:"code"`
	Entry     string            `json:"entry"`
	Namespace map[string]string `json:"namespace"`
	Args      []Arg             `json:"args"`
	Return    ArtifactKind      `json:"return"`
}

type harnessResponse struct {
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
	Traceback string          `json:"traceback"`
}

// Execute runs one attempt of the invocation against the namespace. All
// failure modes are expressed through Result.Err; Execute never returns a Go
// error so the caller's retry policy stays explicit.
func (s *Sandbox) Execute(ctx context.Context, inv Invocation, ns Namespace) Result {
	request := harnessRequest{
		Code:      inv.Code,
		Entry:     inv.EntryPoint,
		Namespace: ns,
		Args:      inv.Args,
		Return:    inv.Return,
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return Result{Err: &CodeError{
			Message:    fmt.Sprintf("failed to encode execution request: %v", err),
			StackTrace: err.Error(),
		}}
	}

	stdout, stderr, err := s.runner(ctx, harnessScript, payload)
	if err != nil {
		return Result{Err: &CodeError{
			Message:    fmt.Sprintf("code execution failed: %v", err),
			StackTrace: runnerTrace(stdout, stderr, err),
		}}
	}

	line := lastLine(stdout)
	if line == "" {
		return Result{Err: &CodeError{
			Message:    "code execution produced no result",
			StackTrace: runnerTrace(stdout, stderr, nil),
		}}
	}

	var response harnessResponse
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return Result{Err: &CodeError{
			Message:    fmt.Sprintf("invalid execution result: %v", err),
			StackTrace: runnerTrace(stdout, stderr, err),
		}}
	}

	if !response.OK {
		trace := response.Traceback
		if trace == "" {
			trace = response.Error
		}
		return Result{Err: &CodeError{
			Message:    response.Error,
			StackTrace: trace,
		}}
	}

	return Result{Value: response.Result}
}

// lastLine returns the last non-empty line of the output. Generated code may
// print to stdout before the harness writes its result line.
func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func runnerTrace(stdout, stderr []byte, err error) string {
	var buf bytes.Buffer
	if len(stderr) > 0 {
		buf.WriteString("STDERR:\n")
		buf.Write(stderr)
		buf.WriteString("\n")
	}
	if len(stdout) > 0 {
		buf.WriteString("STDOUT:\n")
		buf.Write(stdout)
		buf.WriteString("\n")
	}
	if err != nil {
		fmt.Fprintf(&buf, "Exit error: %v", err)
	}
	return buf.String()
}
