package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"aura/internal/config"
	"aura/internal/models"
)

// TokenProvider resolves an access token for an external account. Implemented
// by CredentialService; tests substitute a stub.
type TokenProvider interface {
	AccessToken(ctx context.Context, accountEmail string) (string, bool, error)
}

// ClassroomClient is the work-item source boundary: a Google-Classroom-shaped
// REST client that turns loosely typed coursework payloads into WorkItems at
// the edge. Failures are per account — one broken source never sinks the
// sync stage, it just contributes nothing.
type ClassroomClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	registry   *config.SubjectRegistry
}

// NewClassroomClient creates the work-item source client.
func NewClassroomClient(cfg *config.Config, tokens TokenProvider, registry *config.SubjectRegistry) *ClassroomClient {
	return &ClassroomClient{
		baseURL:    cfg.ClassroomBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		registry:   registry,
	}
}

// Sync fetches work items for every account configured for the subject and
// concatenates the partial results. Accounts without credentials are skipped;
// per-account fetch errors are logged and skipped. The returned error is
// reserved for conditions that invalidate the whole sync (none today).
func (c *ClassroomClient) Sync(ctx context.Context, subjectID string) ([]models.WorkItem, error) {
	items := []models.WorkItem{}
	for _, account := range c.registry.Accounts(subjectID) {
		accountItems, err := c.fetchAccount(ctx, account)
		if err != nil {
			slog.Warn("work-item source failed for account, skipping",
				"account", account, "error", err)
			continue
		}
		items = append(items, accountItems...)
	}
	return items, nil
}

func (c *ClassroomClient) fetchAccount(ctx context.Context, account string) ([]models.WorkItem, error) {
	token, ok, err := c.tokens.AccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("no credential for account, skipping", "account", account)
		return nil, nil
	}

	courses, err := c.fetchCourses(ctx, token)
	if err != nil {
		return nil, err
	}

	var items []models.WorkItem
	for _, course := range courses {
		courseItems, err := c.fetchCourseWork(ctx, token, course)
		if err != nil {
			slog.Warn("failed to fetch coursework, skipping course",
				"course_id", course.ID, "error", err)
			continue
		}
		items = append(items, courseItems...)
	}
	return items, nil
}

type classroomCourse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *ClassroomClient) fetchCourses(ctx context.Context, token string) ([]classroomCourse, error) {
	query := url.Values{}
	query.Set("studentId", "me")
	query.Set("courseStates", "ACTIVE")

	body, err := c.get(ctx, token, "/courses?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Courses []classroomCourse `json:"courses"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse course list: %w", err)
	}
	return payload.Courses, nil
}

func (c *ClassroomClient) fetchCourseWork(ctx context.Context, token string, course classroomCourse) ([]models.WorkItem, error) {
	body, err := c.get(ctx, token, "/courses/"+url.PathEscape(course.ID)+"/courseWork")
	if err != nil {
		return nil, err
	}
	return ParseCourseWork(course.Name, course.ID, body)
}

func (c *ClassroomClient) get(ctx context.Context, token, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("source returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return io.ReadAll(resp.Body)
}

// courseWorkPayload mirrors the wire shape of the coursework listing. Due
// dates arrive split into date and time-of-day parts, both optional.
type courseWorkPayload struct {
	CourseWork []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		State       string `json:"state"`
		DueDate     *struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Day   int `json:"day"`
		} `json:"dueDate"`
		DueTime *struct {
			Hours   int `json:"hours"`
			Minutes int `json:"minutes"`
		} `json:"dueTime"`
	} `json:"courseWork"`
}

// ParseCourseWork converts a coursework listing into WorkItems. Unrecognized
// state strings normalize to Unknown rather than failing the parse.
func ParseCourseWork(courseName, courseID string, body []byte) ([]models.WorkItem, error) {
	var payload courseWorkPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse coursework: %w", err)
	}

	items := make([]models.WorkItem, 0, len(payload.CourseWork))
	for _, cw := range payload.CourseWork {
		item := models.WorkItem{
			ID:            cw.ID,
			Title:         cw.Title,
			Category:      courseName,
			Status:        models.NormalizeWorkItemStatus(cw.State),
			Notes:         cw.Description,
			OwningGroupID: courseID,
		}
		if cw.DueDate != nil {
			hours, minutes := 23, 59
			if cw.DueTime != nil {
				hours, minutes = cw.DueTime.Hours, cw.DueTime.Minutes
			}
			due := time.Date(cw.DueDate.Year, time.Month(cw.DueDate.Month), cw.DueDate.Day,
				hours, minutes, 0, 0, time.UTC)
			item.Due = &due
		}
		items = append(items, item)
	}
	return items, nil
}
