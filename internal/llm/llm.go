package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pavelanni/pdfquiz/internal/intake"
	"github.com/pavelanni/pdfquiz/internal/llm/prompts"
	"github.com/pavelanni/pdfquiz/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultTitle is shown when no title could be generated.
const DefaultTitle = "Quiz"

// TokenStream yields raw model output in arrival order. Recv returns io.EOF
// once the model has finished.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: 0.3,
	}
}

// Ping checks that the endpoint answers and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// StreamQuiz asks the model for a quiz over doc and returns its output as it arrives.
func (c *Client) StreamQuiz(ctx context.Context, doc intake.Document, difficulty model.Difficulty) (TokenStream, error) {
	system, user, err := prompts.BuildQuizPrompts(difficulty, doc.Name)
	if err != nil {
		return nil, fmt.Errorf("build quiz prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    doc.DataURL(),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temperature,
		Stream:      true,
	}

	slog.Debug("opening quiz stream", "model", c.model, "document", doc.Name, "bytes", doc.Size(), "difficulty", difficulty)
	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	return &chatStream{stream: stream}, nil
}

// chatStream adapts the go-openai stream to TokenStream.
type chatStream struct {
	stream *openai.ChatCompletionStream
}

func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("receive chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		var sb strings.Builder
		for _, choice := range resp.Choices {
			sb.WriteString(choice.Delta.Content)
		}
		if sb.Len() == 0 {
			continue
		}
		return sb.String(), nil
	}
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}

// GenerateTitle asks the model for a short display title for a file name.
func (c *Client) GenerateTitle(ctx context.Context, fileName string) (string, error) {
	prompt, err := prompts.BuildTitlePrompt(fileName)
	if err != nil {
		return "", fmt.Errorf("build title prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("LLM title call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices for title")
	}

	title := cleanTitle(resp.Choices[0].Message.Content)
	if title == "" {
		return "", fmt.Errorf("LLM returned an empty title")
	}
	return title, nil
}

// TitleGenerator produces display titles.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, fileName string) (string, error)
}

// TitleOrDefault never fails: any error degrades to DefaultTitle.
func TitleOrDefault(ctx context.Context, g TitleGenerator, fileName string) string {
	if g == nil {
		return DefaultTitle
	}
	title, err := g.GenerateTitle(ctx, fileName)
	if err != nil {
		slog.Warn("title generation failed, using default", "file", fileName, "error", err)
		return DefaultTitle
	}
	return title
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, "\"'`*# ")
	title = strings.TrimRight(title, ".!")
	return title
}
