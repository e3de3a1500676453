package sentiment

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

const scorePrompt = "Rate the sentiment of the following utterance as a single " +
	"number between -1.0 (very negative) and 1.0 (very positive). " +
	"Reply with the number only.\n\nUtterance: %s"

// GeminiScorer scores sentiment polarity using Google's Gemini API.
type GeminiScorer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiScorer creates a Gemini-backed sentiment scorer. The API key is
// read from GEMINI_API_KEY.
func NewGeminiScorer(model string, logger *zap.Logger) (*GeminiScorer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}

	return &GeminiScorer{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Score asks the model for a polarity value and clamps it to [-1,1].
func (g *GeminiScorer) Score(ctx context.Context, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(scorePrompt, text), genai.RoleUser),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	})
	if err != nil {
		return 0, fmt.Errorf("generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("empty sentiment response")
	}

	var raw string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw += part.Text
		}
	}

	polarity, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse polarity %q: %w", raw, err)
	}

	if polarity > 1 {
		polarity = 1
	} else if polarity < -1 {
		polarity = -1
	}

	g.logger.Debug("Gemini sentiment scored", zap.Float64("polarity", polarity))
	return polarity, nil
}
