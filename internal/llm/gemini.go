package llm

import (
	"context"
	"log"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

// GeminiConfig enumerates every knob; nothing is read from the environment
// here.
type GeminiConfig struct {
	APIKey string
	Model  string
	RPS    float64
	Burst  int
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(cfg.RPS, cfg.Burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

// Complete sends one prompt and returns the model's text. It performs
// exactly one API call; retry policy belongs to the caller.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return "", err
	}
	log.Printf("LLM request (%s): %d bytes", g.model, len(prompt))
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
