package brain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
)

// OllamaProvider implements the Provider interface for local Ollama
type OllamaProvider struct {
	client *api.Client

	mu    sync.Mutex
	model string
}

// NewOllamaProvider creates a new Ollama provider. An empty host uses
// OLLAMA_HOST or the Ollama default; an empty model is auto-detected from
// the server's model list on first use.
func NewOllamaProvider(host, model string) (*OllamaProvider, error) {
	base := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("brain: invalid ollama host %q: %w", host, err)
		}
		base = u
	}
	return &OllamaProvider{
		client: api.NewClient(base, &http.Client{Timeout: 5 * time.Minute}),
		model:  model,
	}, nil
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}

// Available is always true: a local server needs no key, failures surface on Generate.
func (o *OllamaProvider) Available() bool {
	return true
}

// resolveModel returns the configured model or the first one the server lists.
func (o *OllamaProvider) resolveModel(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.model != "" {
		return o.model, nil
	}

	list, err := o.client.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list models: %w", err)
	}
	if len(list.Models) == 0 {
		return "", fmt.Errorf("no models installed in ollama")
	}
	o.model = list.Models[0].Name
	logging.Info("Ollama auto-detected model", "model", o.model)
	return o.model, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, req Request) (Response, error) {
	modelName, err := o.resolveModel(ctx)
	if err != nil {
		return Response{}, err
	}

	messages := make([]api.Message, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == model.RoleModel {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.UserPrompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    modelName,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]interface{}{"temperature": 0.2},
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}

	logging.Debug("Ollama chat request", "model", modelName, "messages", len(messages))

	var content strings.Builder
	err = o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		_, err := content.WriteString(resp.Message.Content)
		return err
	})
	if err != nil {
		logging.Error("Ollama chat failed", "model", modelName, "error", err)
		return Response{}, fmt.Errorf("chat: %w", err)
	}

	return Response{Content: content.String(), Model: modelName}, nil
}
