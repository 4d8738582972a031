package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nexxia-ai/tabular/ai"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// NewModel creates an ai.Model backed by an OpenAI-compatible
// chat-completions endpoint. When apiKey is empty, the key is read from
// OPENAI_API_KEY (or OPENROUTER_API_KEY for the OpenRouter URL).
func NewModel(modelName string, apiKey string, baseURLs ...string) *ai.Model {
	url := OpenAIBaseURL
	if len(baseURLs) > 0 && baseURLs[0] != "" {
		url = baseURLs[0]
	}

	if apiKey == "" {
		switch url {
		case OpenRouterBaseURL:
			apiKey = os.Getenv("OPENROUTER_API_KEY")
			if apiKey == "" {
				slog.Error("OPENROUTER_API_KEY is not set")
			}
		default:
			apiKey = os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				slog.Error("OPENAI_API_KEY is not set")
			}
		}
	}

	model := &ai.Model{
		ModelName: modelName,
		APIKey:    apiKey,
		BaseURL:   url,
	}
	model.SetGenerateFunc(openaiGenerate)
	model.SetStreamingFunc(openaiStream)
	return model
}

func openaiGenerate(ctx context.Context, model *ai.Model, messages []ai.Message, tools []ai.Tool) (ai.AIMessage, error) {
	client := createClient(model)
	return callChatAPI(ctx, client, model, messages, tools)
}

func openaiStream(ctx context.Context, model *ai.Model, messages []ai.Message, tools []ai.Tool, chunkFunc func(ai.AIMessage) error) (ai.AIMessage, error) {
	client := createClient(model)
	return streamChatAPI(ctx, client, model, messages, tools, chunkFunc)
}

func createClient(model *ai.Model) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(model.APIKey),
	}
	if model.BaseURL != "" && model.BaseURL != OpenAIBaseURL {
		opts = append(opts, option.WithBaseURL(model.BaseURL))
	}
	return openai.NewClient(opts...)
}

func isRetryableError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if strings.Contains(errStr, "status: 502") ||
		strings.Contains(errStr, "status: 503") ||
		strings.Contains(errStr, "status: 504") ||
		strings.Contains(errStr, "status: 429") {
		return fmt.Errorf("%w: %v", ai.ErrTemporary, err)
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "temporary") {
		return fmt.Errorf("%w: %v", ai.ErrTemporary, err)
	}

	var apiErr interface {
		StatusCode() int
	}
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode() >= 500 || apiErr.StatusCode() == 429 {
			return fmt.Errorf("%w: %v", ai.ErrTemporary, err)
		}
	}

	return err
}
