package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-engine/pkg/openaicompat"
)

// chatInvoker adapts any OpenAI-compatible chat-completions endpoint to the
// Invoker contract. Search-grounded providers return structured citation
// URLs in the response; for plain chat providers the slice is empty.
type chatInvoker struct {
	client openaicompat.Client
	model  string
}

// NewChatInvoker builds an Invoker for an OpenAI-compatible provider.
func NewChatInvoker(client openaicompat.Client, model string) Invoker {
	return &chatInvoker{client: client, model: model}
}

func (c *chatInvoker) Invoke(ctx context.Context, promptText string) (*InvokeResult, error) {
	temp := defaultTemperature
	maxTokens := defaultMaxTokens
	start := time.Now()

	resp, err := c.client.ChatCompletion(ctx, openaicompat.ChatCompletionRequest{
		Model:       c.model,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Messages: []openaicompat.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: promptText},
		},
	})
	if err != nil {
		var apiErr *openaicompat.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Code: apiErr.StatusCode, Body: apiErr.Body}
		}
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, eris.New("provider: response contained no choices")
	}

	return &InvokeResult{
		Text:         resp.Choices[0].Message.Content,
		RawCitations: resp.Citations,
		Latency:      time.Since(start),
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}
