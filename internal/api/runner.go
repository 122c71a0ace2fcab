package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Complete sends a system+user conversation to the Messages API and returns the text reply.
func (c *Client) Complete(ctx context.Context, model, system, user string) (string, error) {
	resolved := c.resolveModel(model)

	resp, err := c.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     resolved,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", &GenerationError{Backend: c.backendName(), Model: string(resolved), Err: err}
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}

	if strings.TrimSpace(result.String()) == "" {
		return "", &GenerationError{
			Backend: c.backendName(),
			Model:   string(resolved),
			Err:     fmt.Errorf("%w: no text content (stop reason %q)", ErrEmptyCompletion, resp.StopReason),
		}
	}
	return result.String(), nil
}

func (c *Client) backendName() string {
	if c.bedrock {
		return "bedrock"
	}
	return "anthropic"
}

var _ Completer = (*Client)(nil)
