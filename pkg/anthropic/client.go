// Package anthropic sends single-turn prompts to the Claude Messages API.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// DefaultMaxTokens bounds a reply when the request leaves MaxTokens unset.
const DefaultMaxTokens int64 = 1024

// Client completes one system + user prompt exchange.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompletionRequest is a single-turn prompt. A non-empty System is sent as
// one block with a 5 minute cache breakpoint, so repeated analyses of the
// same run reuse it.
type CompletionRequest struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
	System      string
	User        string
}

// Completion is the text reply to a CompletionRequest.
type Completion struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      Usage
}

// ClientOption configures the SDK-backed client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL string
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// sdkClient implements Client with the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by the SDK. SDK-level retries are
// disabled; callers apply their own retry policy on *APIError.
func NewClient(apiKey string, opts ...ClientOption) Client {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return newSDKClient(apiKey, cfg.baseURL)
}

func newSDKClient(apiKey, baseURL string) *sdkClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &sdkClient{client: sdk.NewClient(reqOpts...)}
}

func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	msg, err := c.client.Messages.New(ctx, messageParams(req))
	if err != nil {
		return nil, eris.Wrap(asAPIError(err), "anthropic: create message")
	}
	if msg == nil {
		return nil, eris.New("anthropic: empty response")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Completion{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       text.String(),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			Input:      msg.Usage.InputTokens,
			Output:     msg.Usage.OutputTokens,
			CacheWrite: msg.Usage.CacheCreationInputTokens,
			CacheRead:  msg.Usage.CacheReadInputTokens,
		},
	}, nil
}

func messageParams(req CompletionRequest) sdk.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
	}
	if req.System != "" {
		cc := sdk.NewCacheControlEphemeralParam()
		cc.TTL = sdk.CacheControlEphemeralTTL("5m")
		params.System = []sdk.TextBlockParam{{Text: req.System, CacheControl: cc}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}
