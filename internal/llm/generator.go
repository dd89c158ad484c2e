// Package llm implements the generation and simulation services on top of
// a langchaingo model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/observability"
)

const (
	generateTemperature = 0.8
	simulateTemperature = 0.7

	// EmptySimulation is returned when the simulated model says nothing.
	EmptySimulation = "The simulated model returned an empty response."
)

// Generator produces one chain step's prompt and analysis.
type Generator struct {
	Model   llms.Model
	Prompts *PromptManager
	Logger  *observability.Logger
}

func NewGenerator(m llms.Model, prompts *PromptManager, logger *observability.Logger) *Generator {
	return &Generator{Model: m, Prompts: prompts, Logger: logger}
}

// wireResult mirrors model.Result with pointers so missing fields can be
// told apart from empty ones.
type wireResult struct {
	Prompt   *string               `json:"prompt"`
	Analysis *[]model.AnalysisItem `json:"analysis"`
}

func (g *Generator) Generate(ctx context.Context, goal, target, previous string) (*model.Result, error) {
	systemPrompt, err := g.Prompts.GetGeneratorPrompt()
	if err != nil {
		return nil, apperr.Service("generation setup failed", err)
	}

	userMessage := fmt.Sprintf("User Goal: %q\nTarget Model: %q\n", goal, target)
	if previous != "" {
		userMessage += fmt.Sprintf("Previous Prompt Context (to build upon): %q\n", previous)
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userMessage),
	}

	resp, err := g.Model.GenerateContent(ctx, messages,
		llms.WithJSONMode(),
		llms.WithTemperature(generateTemperature),
	)
	if err != nil {
		log.Printf("Error calling generation model for %s: %v", target, err)
		return nil, apperr.Service("generation failed", err)
	}

	content := firstContent(resp)
	if g.Logger != nil {
		g.Logger.LogLLM(target, "generate", userMessage, content)
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Service(apperr.EmptyResponse, nil)
	}
	return ParseResult(content)
}

// ParseResult decodes a generation reply. Both "prompt" and "analysis"
// must be present; an empty prompt is returned as-is for the caller to
// reject.
func ParseResult(content string) (*model.Result, error) {
	var w wireResult
	if err := json.Unmarshal([]byte(stripFences(content)), &w); err != nil {
		return nil, apperr.Service("malformed response", err)
	}
	if w.Prompt == nil || w.Analysis == nil {
		return nil, apperr.Service("malformed response: missing prompt or analysis", nil)
	}
	return &model.Result{Prompt: *w.Prompt, Analysis: *w.Analysis}, nil
}

// stripFences removes a surrounding ```json block some providers add even
// in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstContent(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}

// Simulator previews how a target model would answer a built prompt.
type Simulator struct {
	Model   llms.Model
	Prompts *PromptManager
	Logger  *observability.Logger
}

func NewSimulator(m llms.Model, prompts *PromptManager, logger *observability.Logger) *Simulator {
	return &Simulator{Model: m, Prompts: prompts, Logger: logger}
}

func (s *Simulator) Simulate(ctx context.Context, prompt, target string) (string, error) {
	systemPrompt, err := s.Prompts.GetSimulatorPrompt()
	if err != nil {
		return "", apperr.Service("simulation setup failed", err)
	}

	userMessage := fmt.Sprintf("Target Model to Emulate: %q\nPrompt to respond to: %q\n", target, prompt)
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userMessage),
	}

	resp, err := s.Model.GenerateContent(ctx, messages, llms.WithTemperature(simulateTemperature))
	if err != nil {
		log.Printf("Error calling simulation model for %s: %v", target, err)
		err = apperr.Service("simulation failed", err)
		if s.Logger != nil {
			s.Logger.LogSimulation(target, len(prompt), err)
		}
		return "", err
	}

	content := firstContent(resp)
	if s.Logger != nil {
		s.Logger.LogLLM(target, "simulate", userMessage, content)
		s.Logger.LogSimulation(target, len(prompt), nil)
	}
	if strings.TrimSpace(content) == "" {
		return EmptySimulation, nil
	}
	return content, nil
}
