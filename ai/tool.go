package ai

// Tool describes a callable function exposed to the model. The schema follows
// the JSON-schema shape used by OpenAI-compatible function calling, so it can
// be passed to any provider driver unchanged.
//
// Tools in this library are declarative only: the agent owning the tool is
// responsible for executing the call and appending the ToolMessage result.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// CodeTool builds the schema for a single code-generating function with a
// required "code" string parameter plus any extra string parameters.
func CodeTool(name, description, codeDescription string, extra map[string]string) Tool {
	properties := map[string]any{
		"code": map[string]any{
			"type":        "string",
			"description": codeDescription,
		},
	}
	for param, desc := range extra {
		properties[param] = map[string]any{
			"type":        "string",
			"description": desc,
		}
	}
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   []string{"code"},
		},
	}
}
