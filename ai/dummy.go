package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RecordedResponse represents a recorded AI response with error information
type RecordedResponse struct {
	AIMessage AIMessage `json:"ai_message"`
	Error     string    `json:"error,omitempty"` // Empty string if no error
}

// NewDummyModel is useful for testing purposes. It allows you to mock the
// model's response. The dummy streams by delivering the final content as a
// single chunk through Model.Stream's fallback path.
func NewDummyModel(responseFunc CallFunc) *Model {
	m := &Model{ModelName: "dummy"}
	m.SetGenerateFunc(responseFunc)
	return m
}

// ReplayFunctionFromData returns a CallFunc that replays recorded responses
// in order. Once the recording is exhausted, further calls fail; a test that
// trips this made more model calls than it recorded.
func ReplayFunctionFromData(records []RecordedResponse) (CallFunc, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no recorded responses provided")
	}
	index := 0
	return func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error) {
		if index >= len(records) {
			return AIMessage{}, fmt.Errorf("replay exhausted: call %d exceeds %d recorded responses", index+1, len(records))
		}
		record := records[index]
		index++
		if record.Error != "" {
			return AIMessage{}, fmt.Errorf("%s", record.Error)
		}
		return record.AIMessage, nil
	}, nil
}

// LoadDummyRecords loads recorded responses from a JSONL file for use in
// dummy models.
func LoadDummyRecords(filename string) ([]RecordedResponse, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorded responses file: %w", err)
	}
	defer file.Close()

	var records []RecordedResponse
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record RecordedResponse
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recorded response: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading recorded responses file: %w", err)
	}
	return records, nil
}
