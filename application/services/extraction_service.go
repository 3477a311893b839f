package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	"algoitny-backend/infrastructure/integrations/openai"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

const extractionSystemPrompt = `You extract competitive programming problem
metadata from web page text. Respond with a JSON object with these keys:
"platform" (one of baekjoon, codeforces, leetcode, atcoder, programmers),
"problem_id" (the platform's own identifier), "title", "constraints"
(verbatim limits text, may be empty), and "tags" (array of strings, may be
empty). Use empty values for anything the page does not state.`

// maxPageBytes caps how much of a judge page is read and sent to the model.
const maxPageBytes = 512 * 1024

// extractedProblem is the JSON shape the model is asked to return.
type extractedProblem struct {
	Platform    string   `json:"platform"`
	ProblemID   string   `json:"problem_id"`
	Title       string   `json:"title"`
	Constraints string   `json:"constraints"`
	Tags        []string `json:"tags"`
}

// ExtractionService pulls problem metadata out of a judge URL: it fetches
// the page and has a chat completion model structure the content. It
// implements ports.ProblemExtractor.
type ExtractionService struct {
	llm        chatClient
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewExtractionService creates an ExtractionService.
func NewExtractionService(llm chatClient, model string, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		llm:        llm,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Extract fetches the job's URL and returns the problem the model read out
// of it. The returned problem still needs review.
func (s *ExtractionService) Extract(ctx context.Context, job *entities.Job, progress func(step, message string)) (*entities.Problem, error) {
	progress("fetch", "fetching problem page")
	page, err := s.fetchPage(ctx, job.ProblemURL)
	if err != nil {
		return nil, err
	}

	progress("analyze", "extracting problem metadata")
	raw, err := s.llm.Chat(ctx, s.model, []openai.ChatMessage{
		{Role: openai.RoleSystem, Content: extractionSystemPrompt},
		{Role: openai.RoleUser, Content: fmt.Sprintf("URL: %s\n\nPage content:\n%s", job.ProblemURL, page)},
	}, true)
	if err != nil {
		return nil, apperrors.NewExternalError("llm", err)
	}

	var extracted extractedProblem
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &extracted); err != nil {
		return nil, apperrors.NewExternalError("llm", fmt.Errorf("model returned malformed JSON: %w", err))
	}

	key, err := valueobjects.NewProblemKey(extracted.Platform, extracted.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("extraction produced an invalid problem key: %v", err))
	}

	problem, err := entities.NewProblem(key, extracted.Title, job.ProblemURL)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	problem.Constraints = extracted.Constraints
	problem.Tags = extracted.Tags

	progress("done", fmt.Sprintf("extracted %s", key.String()))
	s.logger.Info("Problem extracted",
		zap.String("jobID", job.ID),
		zap.String("problem", key.String()),
	)
	return problem, nil
}

func (s *ExtractionService) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid problem url: %v", err))
	}
	req.Header.Set("User-Agent", "algoitny-extractor/1.0")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewExternalError("judge", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", apperrors.NewExternalError("judge",
			fmt.Errorf("unexpected status %d fetching %s", res.StatusCode, url))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return "", apperrors.NewExternalError("judge", err)
	}

	page := strings.TrimSpace(string(body))
	if page == "" {
		return "", apperrors.NewExternalError("judge", fmt.Errorf("empty page at %s", url))
	}
	return page, nil
}
