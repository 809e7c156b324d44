package narrative

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const systemInstruction = `You write short impact narratives for a family office's philanthropy reports.
Use only the facts provided. Do not invent figures. Keep it under 150 words, plain prose, no headings.`

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// contentModel is the part of the genai client used here.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator drafts narratives with a Gemini model.
type GeminiGenerator struct {
	models contentModel
	model  string
}

// NewGeminiGenerator creates a generator. The API key is read from the environment by the
// genai client (GEMINI_API_KEY or GOOGLE_API_KEY).
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{models: client.Models, model: model}, nil
}

// Name identifies the generator in drafts.
func (g *GeminiGenerator) Name() string { return "gemini:" + g.model }

// Generate asks the model for a narrative grounded in the input.
func (g *GeminiGenerator) Generate(ctx context.Context, in Input) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt(in)}}}}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyDraft
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

func prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grantee: %s\n", in.GranteeName)
	if in.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", in.Purpose)
	}
	if in.ProgramName != "" {
		fmt.Fprintf(&b, "Program: %s (%s)\n", in.ProgramName, in.Theme)
	}
	if in.Amount != "" {
		fmt.Fprintf(&b, "Grant amount: %s\n", in.Amount)
	}
	if in.Period != "" {
		fmt.Fprintf(&b, "Reporting period: %s\n", in.Period)
	}
	for _, m := range in.Metrics {
		fmt.Fprintf(&b, "Metric %s: %s %s", m.Key, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit)
		if m.Target > 0 {
			fmt.Fprintf(&b, " (target %s)", strconv.FormatFloat(m.Target, 'f', -1, 64))
		}
		b.WriteString("\n")
	}
	return b.String()
}
