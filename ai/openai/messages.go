package openai

import (
	"fmt"

	"github.com/nexxia-ai/tabular/ai"
	"github.com/openai/openai-go/v3"
)

func toChatMessages(msgs []ai.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch m := msg.(type) {
		case ai.UserMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		case ai.SystemMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.Opt(m.Content),
					},
				},
			})
		case ai.AIMessage:
			result = append(result, toChatAssistantMessage(m))
		case ai.ToolMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.Opt(m.Content),
					},
					ToolCallID: m.ToolCallID,
				},
			})
		default:
			return nil, fmt.Errorf("unsupported message type: %T", msg)
		}
	}
	return result, nil
}

func toChatAssistantMessage(msg ai.AIMessage) openai.ChatCompletionMessageParamUnion {
	assistantMsg := &openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.Opt(msg.Content),
		},
	}
	if len(msg.ToolCalls) > 0 {
		toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			toolCalls[i] = openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Args,
					},
				},
			}
		}
		assistantMsg.ToolCalls = toolCalls
	}
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: assistantMsg,
	}
}

func fromChatResponse(resp *openai.ChatCompletion, choiceIndex int) ai.AIMessage {
	if len(resp.Choices) <= choiceIndex {
		return ai.AIMessage{}
	}
	choice := resp.Choices[choiceIndex]
	msg := choice.Message

	aiMsg := ai.AIMessage{
		Role:    ai.AssistantRole,
		Content: msg.Content,
	}

	if len(msg.ToolCalls) > 0 {
		aiMsg.ToolCalls = make([]ai.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			aiMsg.ToolCalls[i] = ai.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	aiMsg.Response = ai.Response{
		ID:      resp.ID,
		Object:  string(resp.Object),
		Created: resp.Created,
		Model:   string(resp.Model),
		Usage: ai.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}

	return aiMsg
}
