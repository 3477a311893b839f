// Package services implements the LLM-backed workloads the workers run:
// generator-script synthesis and problem extraction.
package services

import (
	"context"
	"fmt"
	"strings"

	"algoitny-backend/domain/entities"
	"algoitny-backend/infrastructure/integrations/openai"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// chatClient is the slice of the OpenAI client the services use.
type chatClient interface {
	Chat(ctx context.Context, model string, messages []openai.ChatMessage, jsonOutput bool) (string, error)
}

const generationSystemPrompt = `You are an expert competitive programming assistant.
Write a standalone Python 3 script that prints randomized test inputs for the
given problem, one complete input per run, respecting every stated constraint.
The script must use only the standard library and write the input to stdout.
Respond with the script only, no explanation.`

// GenerationService produces test-case generator scripts with a chat
// completion model. It implements ports.ScriptGenerator.
type GenerationService struct {
	llm    chatClient
	model  string
	logger *zap.Logger
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(llm chatClient, model string, logger *zap.Logger) *GenerationService {
	return &GenerationService{llm: llm, model: model, logger: logger}
}

// Generate builds the prompt from the job's problem metadata and returns
// the generated script. Progress callbacks mark the externally visible
// steps of the run.
func (s *GenerationService) Generate(ctx context.Context, job *entities.Job, progress func(step, message string)) (string, error) {
	progress("prompt", "building generation prompt")

	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s (%s)\n", job.Title, job.ProblemKey.String())
	fmt.Fprintf(&b, "Solution language: %s\n", job.Language)
	if job.Constraints != "" {
		fmt.Fprintf(&b, "Constraints:\n%s\n", job.Constraints)
	}
	if len(job.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(job.Tags, ", "))
	}

	progress("generate", "requesting generator script from model")
	raw, err := s.llm.Chat(ctx, s.model, []openai.ChatMessage{
		{Role: openai.RoleSystem, Content: generationSystemPrompt},
		{Role: openai.RoleUser, Content: b.String()},
	}, false)
	if err != nil {
		return "", apperrors.NewExternalError("llm", err)
	}

	code := stripCodeFences(raw)
	if strings.TrimSpace(code) == "" {
		return "", apperrors.NewExternalError("llm", fmt.Errorf("model returned an empty script"))
	}

	progress("validate", "generator script received")
	s.logger.Debug("Generator script produced",
		zap.String("jobID", job.ID),
		zap.Int("bytes", len(code)),
	)
	return code, nil
}

// stripCodeFences removes a surrounding markdown code fence if the model
// wrapped its answer in one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:] // drop opening fence with optional language tag
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "```" {
		if len(lines) == 1 {
			break
		}
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
