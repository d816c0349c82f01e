// Package generate produces grounded answers from retrieved context.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/newsquill/newsquill/internal/log"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("empty model response")

// Generator produces a natural-language answer grounded in the supplied
// context chunks, or a refusal when they are insufficient.
type Generator interface {
	Generate(ctx context.Context, question string, contextChunks []string) (string, error)
}

// Gemini generates answers with a single non-streaming Gemini call.
// There are no retries and no local fallback: a failed call is a failed
// turn, surfaced to the caller.
type Gemini struct {
	client *genai.Client
	model  string
	logger log.Logger
}

// NewGemini creates a Gemini answer generator.
func NewGemini(client *genai.Client, model string, logger log.Logger) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, question string, contextChunks []string) (string, error) {
	prompt := BuildPrompt(question, contextChunks)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}

// BuildPrompt assembles the grounding prompt: system framing, the context
// chunks labeled as numbered sources, and the question.
func BuildPrompt(question string, contextChunks []string) string {
	var sources strings.Builder
	for i, c := range contextChunks {
		if i > 0 {
			sources.WriteString("\n\n")
		}
		fmt.Fprintf(&sources, "Source %d:\n%s", i+1, c)
	}

	return fmt.Sprintf(`You are a news assistant.
Answer the user's question using ONLY the information from the sources below.
If the answer is not contained in the sources, say you don't know.
If the question is a greeting or asks who you are, greet the user, introduce
yourself and explain that you can answer questions about the news.

Sources:
%s

Question:
%s
`, sources.String(), question)
}
