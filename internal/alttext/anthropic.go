package alttext

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicDescriber is a Describer backed by a Claude vision-capable model.
type AnthropicDescriber struct {
	client anthropic.Client
	model  string
}

// NewAnthropicDescriber creates an AnthropicDescriber. An empty model
// defaults to claude-sonnet-4-20250514.
func NewAnthropicDescriber(apiKey, model string, opts ...option.RequestOption) *AnthropicDescriber {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicDescriber{
		client: anthropic.NewClient(options...),
		model:  model,
	}
}

var describerPrompts = map[Kind]string{
	KindFigure:  "Describe this figure concisely for a screen reader user. One or two sentences. Do not begin with phrases like \"image of\" or \"picture of\" — describe the content directly.",
	KindFormula: "Transcribe this mathematical formula as a concise spoken-form description suitable for a screen reader, e.g. \"the integral from zero to infinity of e to the minus x squared\".",
}

// Describe sends imageBytes (expected PNG) and contextText to the model and
// returns the generated description.
func (d *AnthropicDescriber) Describe(ctx context.Context, imageBytes []byte, contextText string, kind Kind) (string, error) {
	prompt := describerPrompts[kind]
	if contextText != "" {
		prompt += "\n\nNearby document text for context:\n" + contextText
	}

	encoded := base64.StdEncoding.EncodeToString(imageBytes)

	message, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: 300,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/png", encoded),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("alttext: describe via anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("alttext: anthropic returned no text content")
	}
	return text, nil
}
