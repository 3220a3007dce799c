package provider

import (
	"context"
	"errors"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/sells-group/visibility-engine/pkg/anthropic"
)

// anthropicInvoker adapts the Anthropic Messages API to the Invoker
// contract. Anthropic exposes no structured citation field, so citations
// come entirely from markdown link extraction downstream.
type anthropicInvoker struct {
	client anthropic.Client
	model  string
}

// NewAnthropicInvoker builds an Invoker backed by the Anthropic SDK.
func NewAnthropicInvoker(client anthropic.Client, model string) Invoker {
	return &anthropicInvoker{client: client, model: model}
}

func (a *anthropicInvoker) Invoke(ctx context.Context, promptText string) (*InvokeResult, error) {
	temp := defaultTemperature
	start := time.Now()

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   defaultMaxTokens,
		System:      systemInstruction,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: promptText},
		},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Code: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return nil, err
	}

	return &InvokeResult{
		Text:       resp.Text(),
		Latency:    time.Since(start),
		TokensUsed: int(resp.Usage.Total()),
	}, nil
}
