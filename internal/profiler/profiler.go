package profiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/BerylCAtieno/profilegen/internal/prompts"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates profile candidates with Gemini function calling.
type GeminiClient struct {
	client *genai.Client
	model  contentGenerator
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.9)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(8192)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompts.System)}}
	model.Tools = []*genai.Tool{profilesTool()}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{prompts.ToolName},
		},
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiClient) GenerateProfiles(ctx context.Context, req models.TextRequest) ([]models.ProfileCandidate, error) {
	prompt := prompts.Profile(req.Keyword, req.Count, req.ShortNames)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyError(err)
	}

	call, ok := firstFunctionCall(resp)
	if !ok {
		return nil, fmt.Errorf("%w: no function call in response", models.ErrMalformedResponse)
	}

	// Re-encode so both backends share one strict decoder.
	args, err := json.Marshal(call.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: encode function args: %v", models.ErrMalformedResponse, err)
	}
	return models.DecodeCandidates(args)
}

func firstFunctionCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return genai.FunctionCall{}, false
	}
	for _, call := range resp.Candidates[0].FunctionCalls() {
		if call.Name == prompts.ToolName {
			return call, true
		}
	}
	return genai.FunctionCall{}, false
}

// classifyError maps Gemini REST and gRPC errors onto the provider taxonomy.
func classifyError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", models.ErrRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", models.ErrQuotaExceeded, err)
		}
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		switch {
		case aerr.HTTPCode() == http.StatusTooManyRequests, aerr.GRPCStatus().Code() == codes.ResourceExhausted:
			return fmt.Errorf("%w: %w", models.ErrRateLimited, err)
		case aerr.HTTPCode() == http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", models.ErrQuotaExceeded, err)
		}
	}

	return fmt.Errorf("failed to generate content: %w", err)
}

func profilesTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        prompts.ToolName,
			Description: prompts.ToolDescription,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"suggestions": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"username": {Type: genai.TypeString},
								"bio":      {Type: genai.TypeString},
							},
							Required: []string{"username", "bio"},
						},
					},
				},
				Required: []string{"suggestions"},
			},
		}},
	}
}
