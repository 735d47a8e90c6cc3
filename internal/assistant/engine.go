package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a single completion request.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
	Stream    bool
}

// Engine produces a completion for a request.
type Engine interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// AnthropicEngine talks to the Anthropic Messages API.
type AnthropicEngine struct {
	client anthropic.Client
	model  string
}

// NewAnthropicEngine builds an engine. An empty apiKey falls back to $ANTHROPIC_API_KEY.
func NewAnthropicEngine(apiKey, model string) (*AnthropicEngine, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}
	return &AnthropicEngine{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Complete sends the request. Streaming requests return a KindStreaming response.
func (e *AnthropicEngine) Complete(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: int64(maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	if req.Stream {
		return StreamingResponse(&anthropicStream{s: e.client.Messages.NewStreaming(ctx, params)}), nil
	}

	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, cleanAPIError(err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return CompleteResponse(sb.String()), nil
}

// anthropicStream yields only text deltas of a message stream.
type anthropicStream struct {
	s   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	cur string
}

func (a *anthropicStream) Next() bool {
	for a.s.Next() {
		evt := a.s.Current()
		if evt.Type != "content_block_delta" {
			continue
		}
		delta := evt.AsContentBlockDelta()
		if delta.Delta.Type == "text_delta" {
			a.cur = delta.Delta.AsTextDelta().Text
			return true
		}
	}
	return false
}

func (a *anthropicStream) Current() string { return a.cur }

func (a *anthropicStream) Err() error {
	if err := a.s.Err(); err != nil {
		return cleanAPIError(err)
	}
	return nil
}

func (a *anthropicStream) Close() error { return a.s.Close() }

func cleanAPIError(err error) error {
	errStr := err.Error()
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
		return fmt.Errorf("API authentication failed, check your API key: %w", err)
	}
	return fmt.Errorf("anthropic: %w", err)
}
