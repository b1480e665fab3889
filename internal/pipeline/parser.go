package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/ovoda/invoice-tracker/internal/store"
)

var (
	_ AIParser = (*GeminiAIParser)(nil)
	_ AIParser = (*OpenAIParser)(nil)
)

// GeminiAIParser re-extracts invoice fields with Gemini.
// Credentials come from the environment (GOOGLE_API_KEY or Vertex AI ADC).
type GeminiAIParser struct {
	model string
}

// NewGeminiAIParser creates a parser using the given Gemini model.
func NewGeminiAIParser(model string) *GeminiAIParser {
	return &GeminiAIParser{model: model}
}

// Name returns the model name.
func (p *GeminiAIParser) Name() string {
	return p.model
}

// ParseInvoice sends the invoice text to Gemini and returns the parsed JSON object.
func (p *GeminiAIParser) ParseInvoice(ctx context.Context, text string, categories []store.CategoryRow) (map[string]interface{}, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("GeminiAIParser.ParseInvoice: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildInvoicePrompt(text, categories)}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("GeminiAIParser.ParseInvoice: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("GeminiAIParser.ParseInvoice: empty response from model")
	}

	return decodeModelObject(rawText)
}

// OpenAIParser re-extracts invoice fields with an OpenAI chat model in JSON mode.
type OpenAIParser struct {
	client *openai.Client
	model  string
}

// NewOpenAIParser creates a parser with the given API key and model.
func NewOpenAIParser(apiKey, model string) *OpenAIParser {
	return &OpenAIParser{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Name returns the model name.
func (p *OpenAIParser) Name() string {
	return p.model
}

// ParseInvoice sends the invoice text to OpenAI and returns the parsed JSON object.
func (p *OpenAIParser) ParseInvoice(ctx context.Context, text string, categories []store.CategoryRow) (map[string]interface{}, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildInvoicePrompt(text, categories),
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAIParser.ParseInvoice: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAIParser.ParseInvoice: no choices in response")
	}

	return decodeModelObject(resp.Choices[0].Message.Content)
}

// decodeModelObject parses a model response that should hold one JSON object.
func decodeModelObject(rawText string) (map[string]interface{}, error) {
	clean := cleanModelJSON(rawText)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("decodeModelObject: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	if parsed == nil {
		return nil, fmt.Errorf("decodeModelObject: response is not a JSON object")
	}
	return parsed, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
