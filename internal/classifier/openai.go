package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/resolutehq/resolute/internal/types"
)

// Compile-time interface check
var _ Classifier = (*OpenAI)(nil)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements intent classification using OpenAI's chat completions API.
type OpenAI struct {
	chat  ChatService
	model openai.ChatModel
}

// NewOpenAI creates a new OpenAI-backed classifier.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		chat:  client.Chat.Completions,
		model: openai.ChatModel(model),
	}
}

// Classify sends the goal snapshot plus the raw user text to the model and
// parses the returned intent. Transport failures surface as ErrUnavailable so
// callers can divert the input into the offline queue; content failures
// surface as ErrMalformedResponse and are not retried.
func (o *OpenAI) Classify(ctx context.Context, goals []types.Goal, userText string) (*types.Intent, error) {
	prompt, err := BuildPrompt(goals, userText)
	if err != nil {
		return nil, err
	}

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		// An API error status means the service answered; only transport
		// failures count as connectivity loss.
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: status %d: %v", ErrRejected, apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return ParseIntent(resp.Choices[0].Message.Content)
}

// ModelName returns the chat model name.
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
