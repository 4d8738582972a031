package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemporary marks transient backend failures (5xx, 429, network).
	ErrTemporary = errors.New("temporary error")
)

type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("status: %s, code: %d, error: %s", e.Status, e.StatusCode, e.ErrorMessage)
}

// CallFunc is the provider implementation of a single completion request.
type CallFunc func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error)

// StreamFunc is the provider implementation of a streaming completion
// request. chunkFunc is invoked for each partial message, in arrival order,
// on the caller's goroutine. The returned AIMessage is the accumulated final
// message.
type StreamFunc func(ctx context.Context, model *Model, messages []Message, tools []Tool, chunkFunc func(AIMessage) error) (AIMessage, error)

// Model represents a generic model container that uses function variables for
// provider-specific logic.
type Model struct {
	ModelName string
	APIKey    string
	BaseURL   string

	callFunc   CallFunc
	streamFunc StreamFunc

	// Options pointer variables - use nil to represent option not set
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	StopSequences *[]string
}

// Call makes a single call to the model. It does not execute any tool calls;
// requested ToolCalls are returned on the AIMessage for the caller's own
// execution loop.
func (m *Model) Call(ctx context.Context, messages []Message, tools []Tool) (AIMessage, error) {
	if m.callFunc == nil {
		return AIMessage{}, fmt.Errorf("model %s has no call function", m.ModelName)
	}
	return m.callFunc(ctx, m, messages, tools)
}

// Stream makes a streaming call to the model. When the provider does not
// support streaming, it falls back to Call and delivers the full message as a
// single chunk.
func (m *Model) Stream(ctx context.Context, messages []Message, tools []Tool, chunkFunc func(AIMessage) error) (AIMessage, error) {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, m, messages, tools, chunkFunc)
	}
	msg, err := m.Call(ctx, messages, tools)
	if err != nil {
		return AIMessage{}, err
	}
	if msg.Content != "" || msg.Think != "" {
		chunk := AIMessage{Role: msg.Role, Content: msg.Content, Think: msg.Think}
		if err := chunkFunc(chunk); err != nil {
			return AIMessage{}, err
		}
	}
	return msg, nil
}

// SetGenerateFunc sets the completion function for the model. This is used by
// provider packages and by tests that need full control over responses.
func (m *Model) SetGenerateFunc(callFunc CallFunc) {
	m.callFunc = callFunc
}

// SetStreamingFunc sets the streaming completion function for the model.
func (m *Model) SetStreamingFunc(streamFunc StreamFunc) {
	m.streamFunc = streamFunc
}

// WithTemperature sets the temperature for the model and returns the model for chaining
func (m *Model) WithTemperature(temperature float64) *Model {
	m.Temperature = &temperature
	return m
}

// WithMaxTokens sets the maximum tokens for the model and returns the model for chaining
func (m *Model) WithMaxTokens(maxTokens int) *Model {
	m.MaxTokens = &maxTokens
	return m
}

// WithTopP sets the top_p parameter for the model and returns the model for chaining
func (m *Model) WithTopP(topP float64) *Model {
	m.TopP = &topP
	return m
}

// WithStopSequences sets the stop sequences for the model and returns the model for chaining
func (m *Model) WithStopSequences(sequences []string) *Model {
	m.StopSequences = &sequences
	return m
}

// ExtractThinkTags extracts <think>...</think> tags from the content and
// returns both the cleaned content and the think part.
func ExtractThinkTags(content string) (cleanedContent string, thinkPart string) {
	startTag := "<think>"
	endTag := "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		return content, ""
	}

	end := strings.Index(content[start:], endTag)
	if end == -1 {
		return content, ""
	}
	end += start + len(endTag)

	thinkPart = content[start+len(startTag) : end-len(endTag)]
	cleanedContent = content[:start] + content[end:]

	return strings.TrimSpace(cleanedContent), strings.TrimSpace(thinkPart)
}
