package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
)

const titleSystemPrompt = "You generate short conversation titles. " +
	"Given the user's first message, respond with a concise title of at most " +
	"six words. No quotes, no trailing punctuation."

const (
	maxTitleLength        = 80
	defaultTitleMaxTokens = 200
)

type titleResponse struct {
	Title string `json:"title" jsonschema_description:"Short title for the conversation"`
}

var titleSchema = generateSchema[titleResponse]()

// TitleGenerator names conversations from their opening message. A fresh
// openai client is built per call because the catalog can point every model
// at a different endpoint and credential.
type TitleGenerator struct {
	maxTokens int
}

// NewTitleGenerator builds a generator. maxTokens bounds the completion; a
// non-positive value falls back to a default generous enough for models that
// burn tokens on thinking before the JSON payload.
func NewTitleGenerator(maxTokens int) *TitleGenerator {
	if maxTokens <= 0 {
		maxTokens = defaultTitleMaxTokens
	}
	return &TitleGenerator{maxTokens: maxTokens}
}

func (g *TitleGenerator) GenerateTitle(ctx context.Context, resolved model.ResolvedModel, firstMessage string) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(resolved.Credential),
		option.WithBaseURL(resolved.EndpointURL),
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model: resolved.UpstreamModelID,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(titleSystemPrompt),
			openai.UserMessage(firstMessage),
		},
		MaxTokens: openai.Int(int64(g.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "conversation_title",
					Description: openai.String("Structured response schema"),
					Schema:      titleSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("title completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in title response")
	}

	slog.DebugContext(ctx, "title generation completed",
		"model", resolved.UpstreamModelID,
		"duration_ms", time.Since(start).Milliseconds(),
		"completion_tokens", resp.Usage.CompletionTokens)

	content := resp.Choices[0].Message.Content
	var parsed titleResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Some OpenAI-compatible servers ignore response_format and answer in
		// prose, sometimes with thinking markup. Salvage what we can.
		_, parsed.Title = chat.SplitThinking(content)
	}

	title := cleanTitle(parsed.Title)
	if title == "" {
		return "", fmt.Errorf("empty title in response")
	}
	return title, nil
}

// cleanTitle strips wrapping quotes and clamps the length.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLength {
		s = strings.TrimSpace(s[:maxTitleLength])
	}
	return s
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
