package tabular

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nexxia-ai/tabular/ai"
)

const defaultMaxTraceFiles = 10

// Trace records every model exchange of a session to a JSONL file, one entry
// per call. Traces are a debugging aid: they capture the full prompts and
// responses, including the stack traces fed back to the model, which the
// user-facing events deliberately omit.
type Trace struct {
	path     string
	file     *os.File
	maxFiles int
	mu       sync.Mutex
}

type traceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type traceEntry struct {
	Time     time.Time      `json:"time"`
	RunID    string         `json:"run_id"`
	Agent    string         `json:"agent"`
	Request  []traceMessage `json:"request"`
	Response traceMessage   `json:"response"`
	Calls    []ai.ToolCall  `json:"calls,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewTrace creates a trace file named tabular-<timestamp>.jsonl in dir,
// creating the directory if needed. Older trace files beyond
// defaultMaxTraceFiles are pruned.
func NewTrace(dir string) (*Trace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	name := fmt.Sprintf("tabular-%s.jsonl", time.Now().Format("20060102150405"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	t := &Trace{path: path, file: file, maxFiles: defaultMaxTraceFiles}
	t.prune(dir)
	return t, nil
}

func (t *Trace) Filepath() string {
	return t.path
}

// RecordExchange appends one model request/response pair to the trace.
func (t *Trace) RecordExchange(runID, agent string, request []ai.Message, response ai.AIMessage, callErr error) {
	entry := traceEntry{
		Time:     time.Now(),
		RunID:    runID,
		Agent:    agent,
		Request:  make([]traceMessage, 0, len(request)),
		Response: traceMessage{Role: string(response.Role), Content: response.Content},
		Calls:    response.ToolCalls,
	}
	for _, msg := range request {
		role, content := msg.Value()
		entry.Request = append(entry.Request, traceMessage{Role: string(role), Content: content})
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.file.Write(data)
	t.file.WriteString("\n")
}

func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// prune removes the oldest trace files beyond the retention cap.
func (t *Trace) prune(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var traces []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "tabular-") && strings.HasSuffix(entry.Name(), ".jsonl") {
			traces = append(traces, entry.Name())
		}
	}
	sort.Strings(traces)
	for len(traces) > t.maxFiles {
		os.Remove(filepath.Join(dir, traces[0]))
		traces = traces[1:]
	}
}
