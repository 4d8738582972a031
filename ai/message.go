package ai

type MessageRole string

const (
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
	SystemRole    MessageRole = "system"
)

type Message interface {
	Value() (role MessageRole, content string)
}

var (
	_ Message = UserMessage{}
	_ Message = AIMessage{}
	_ Message = ToolMessage{}
	_ Message = SystemMessage{}
)

// ToolCall is a structured function-call request returned by the model.
// Args is the raw JSON argument string exactly as the model produced it.
type ToolCall struct {
	ID   string
	Type string
	Name string
	Args string
}

type AIMessage struct {
	Role      MessageRole
	Content   string
	Think     string
	ToolCalls []ToolCall
	Response  Response
}

func (m AIMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type UserMessage struct {
	Role    MessageRole
	Content string
}

func (m UserMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

// ToolMessage carries the result of a tool invocation back to the model.
// IsError marks results that contain an execution failure; the content is
// then the full stack trace so the model can correct the generated code.
type ToolMessage struct {
	Role       MessageRole
	Content    string
	ToolCallID string
	ToolName   string
	IsError    bool
}

func (m ToolMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type SystemMessage struct {
	Role    MessageRole
	Content string
}

func (m SystemMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

// Response carries provider metadata for the completed model response.
type Response struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
