// Package gateway talks to an OpenAI-compatible chat-completions gateway
// for both structured text generation and image generation.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/BerylCAtieno/profilegen/internal/prompts"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultURL = "https://ai.gateway.lovable.dev/v1/chat/completions"

const (
	toolArgumentsPath = "choices.0.message.tool_calls.0.function.arguments"
	imageURLPath      = "choices.0.message.images.0.image_url.url"
)

type Config struct {
	URL        string
	APIKey     string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{cfg: cfg}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type function struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type tool struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type toolChoice struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type chatRequest struct {
	Model      string      `json:"model"`
	Messages   []message   `json:"messages"`
	Tools      []tool      `json:"tools,omitempty"`
	ToolChoice *toolChoice `json:"tool_choice,omitempty"`
	Modalities []string    `json:"modalities,omitempty"`
}

// GenerateProfiles asks the text model for candidates through a forced
// generate_profiles tool call.
func (c *Client) GenerateProfiles(ctx context.Context, req models.TextRequest) ([]models.ProfileCandidate, error) {
	body := chatRequest{
		Model: c.cfg.TextModel,
		Messages: []message{
			{Role: "system", Content: prompts.System},
			{Role: "user", Content: prompts.Profile(req.Keyword, req.Count, req.ShortNames)},
		},
		Tools: []tool{{
			Type: "function",
			Function: function{
				Name:        prompts.ToolName,
				Description: prompts.ToolDescription,
				Parameters:  prompts.ToolParameters(),
			},
		}},
		ToolChoice: &toolChoice{Type: "function", Function: function{Name: prompts.ToolName}},
	}

	payload, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	args := gjson.GetBytes(payload, toolArgumentsPath)
	switch {
	case !args.Exists():
		return nil, fmt.Errorf("%w: no tool call found in response", models.ErrMalformedResponse)
	case args.Type == gjson.String:
		// OpenAI encodes arguments as a JSON string.
		return models.DecodeCandidates([]byte(args.String()))
	case args.IsObject():
		return models.DecodeCandidates([]byte(args.Raw))
	default:
		return nil, fmt.Errorf("%w: unexpected tool arguments type %s", models.ErrMalformedResponse, args.Type)
	}
}

// GenerateAvatar returns the image reference (usually a data URL) for one
// avatar. A successful response without an image yields models.ErrNoImage.
func (c *Client) GenerateAvatar(ctx context.Context, req models.ImageRequest) (string, error) {
	body := chatRequest{
		Model: c.cfg.ImageModel,
		Messages: []message{
			{Role: "user", Content: prompts.Image(req.Keyword, req.Style, req.Palette)},
		},
		Modalities: []string{"image"},
	}

	payload, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}

	url := strings.TrimSpace(gjson.GetBytes(payload, imageURLPath).String())
	if url == "" {
		return "", models.ErrNoImage
	}
	return url, nil
}

func (c *Client) post(ctx context.Context, body chatRequest) ([]byte, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: gateway status %d", models.ErrRateLimited, res.StatusCode)
	case res.StatusCode == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: gateway status %d", models.ErrQuotaExceeded, res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read gateway error body: %w", err)
		}
		return nil, fmt.Errorf("gateway status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: response is not valid JSON", models.ErrMalformedResponse)
	}
	return payload, nil
}
