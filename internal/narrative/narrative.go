// Package narrative drafts advisory grant narratives for human review. Nothing produced here
// feeds a workflow decision.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Disclaimer accompanies every draft.
const Disclaimer = "Draft generated for human review. It is advisory only and is not used in any grant decision."

// ErrEmptyDraft indicates the generator produced no text.
var ErrEmptyDraft = errors.New("narrative generator returned no text")

// Metric is one impact measure with its optional goal.
type Metric struct {
	Key    string
	Value  float64
	Unit   string
	Target float64
}

// Input summarizes the grant and program a narrative is about.
type Input struct {
	GranteeName string
	Purpose     string
	ProgramName string
	Theme       string
	Amount      string
	Stage       string
	Period      string
	Metrics     []Metric
}

// Draft is generated narrative text with its disclaimer.
type Draft struct {
	Text       string `json:"text"`
	Disclaimer string `json:"disclaimer"`
	Generator  string `json:"generator"`
}

// Generator produces narrative text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in Input) (string, error)
}

// Compose runs gen and wraps its output with the disclaimer.
func Compose(ctx context.Context, gen Generator, in Input) (*Draft, error) {
	if gen == nil {
		gen = TemplateGenerator{}
	}
	text, err := gen.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("generating narrative with %s: %w", gen.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDraft
	}
	return &Draft{Text: text, Disclaimer: Disclaimer, Generator: gen.Name()}, nil
}
