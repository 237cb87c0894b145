package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"aura/internal/config"
	"aura/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LLMOracle ranks work items through an OpenAI-compatible chat completions
// endpoint. Responses are cached per item set and calls are rate limited so a
// burst of pipeline runs can't hammer the provider. Every failure mode —
// network, HTTP status, unparsable output — surfaces as an error and the
// reorderer falls back to baseline order.
type LLMOracle struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewLLMOracle creates an oracle from configuration. Returns nil (oracle
// disabled) when no provider is configured.
func NewLLMOracle(cfg *config.Config) *LLMOracle {
	if cfg.OracleProvider == "" || cfg.OracleAPIKey == "" {
		return nil
	}

	perMinute := cfg.OracleRateLimit
	if perMinute <= 0 {
		perMinute = 10
	}

	return &LLMOracle{
		baseURL:    strings.TrimRight(cfg.OracleBaseURL, "/"),
		apiKey:     cfg.OracleAPIKey,
		model:      cfg.OracleModel,
		httpClient: &http.Client{Timeout: cfg.OracleTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		cache:      gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Rank asks the model to reorder the given items and returns the ranked
// identifiers. Identical item sets within the cache window reuse the previous
// answer without a network call.
func (o *LLMOracle) Rank(ctx context.Context, items []models.WorkItem, busy []models.BusyInterval) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	key := cacheKey(items)
	if cached, ok := o.cache.Get(key); ok {
		return cached.([]string), nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("oracle rate limit wait: %w", err)
	}

	reqBody := chatCompletionRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: rankingSystemPrompt},
			{Role: "user", Content: buildRankingPrompt(items, busy)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	ids, err := ParseRankedIDs(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	o.cache.Set(key, ids, gocache.DefaultExpiration)
	return ids, nil
}

const rankingSystemPrompt = `You prioritize a student's task list for today. ` +
	`Order the tasks by what should be done first, considering due dates, ` +
	`submission status and how busy the day already is. ` +
	`Respond with a JSON object of the form {"ranked_ids": ["id1", "id2", ...]} ` +
	`containing every given task id exactly once and nothing else.`

func buildRankingPrompt(items []models.WorkItem, busy []models.BusyInterval) string {
	var sb strings.Builder
	sb.WriteString("Tasks:\n")
	for _, item := range items {
		due := "no due date"
		if item.Due != nil {
			due = item.Due.Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "- id=%s title=%q category=%s due=%s status=%s\n",
			item.ID, item.Title, item.Category, due, item.Status)
	}

	sb.WriteString("Busy today:\n")
	if len(busy) == 0 {
		sb.WriteString("- (nothing)\n")
	}
	for _, b := range busy {
		fmt.Fprintf(&sb, "- %s\n", b.Label())
	}
	return sb.String()
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseRankedIDs extracts the ranked identifier list from a model response.
// Models wrap their JSON in code fences or prose more often than not, so the
// parser strips fences and falls back to the first {...} region it can find.
func ParseRankedIDs(content string) ([]string, error) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	match := jsonObjectPattern.FindString(cleaned)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in oracle response")
	}

	var parsed struct {
		RankedIDs []string `json:"ranked_ids"`
	}
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse oracle response: %w", err)
	}
	if parsed.RankedIDs == nil {
		return nil, fmt.Errorf("oracle response missing ranked_ids")
	}
	return parsed.RankedIDs, nil
}

func cacheKey(items []models.WorkItem) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return strings.Join(ids, ",")
}
