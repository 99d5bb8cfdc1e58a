package brain

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
)

// GeminiProvider implements the Provider interface for Google's Gemini models
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider. An empty apiKey yields a
// provider that reports itself unavailable.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	g := &GeminiProvider{model: model}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("brain: create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) Available() bool {
	return g.client != nil
}

func (g *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !g.Available() {
		logging.Warn("Gemini provider not configured")
		return Response{}, fmt.Errorf("gemini provider not configured")
	}

	logging.Debug("Gemini request starting", "model", g.model, "history", len(req.History))

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(req), config)
	if err != nil {
		logging.Error("Gemini API error", "model", g.model, "error", err)
		return Response{}, fmt.Errorf("generate content: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return Response{}, fmt.Errorf("no text in response")
	}

	modelName := g.model
	if resp.ModelVersion != "" {
		modelName = resp.ModelVersion
	}
	logging.Info("Gemini API response", "model", modelName, "content_length", text.Len())

	return Response{Content: text.String(), Model: modelName}, nil
}

// geminiContents maps history plus the new prompt onto Gemini's user/model
// roles, oldest first.
func geminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		if turn.Role == model.RoleModel {
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleModel))
		} else {
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleUser))
		}
	}
	return append(contents, genai.NewContentFromText(req.UserPrompt, genai.RoleUser))
}
