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

// CalendarClient is the calendar source boundary. It fetches the day's events
// for every account of a subject and parses them into BusyIntervals at the
// edge, keeping untyped calendar payloads out of the planner.
type CalendarClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	registry   *config.SubjectRegistry
}

// NewCalendarClient creates the calendar source client.
func NewCalendarClient(cfg *config.Config, tokens TokenProvider, registry *config.SubjectRegistry) *CalendarClient {
	return &CalendarClient{
		baseURL:    cfg.CalendarBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		registry:   registry,
	}
}

// BusyIntervals returns the subject's busy intervals inside [dayStart, dayEnd).
// Accounts without credentials contribute nothing — a subject with no
// calendar access plans against an empty busy list, never an error.
func (c *CalendarClient) BusyIntervals(ctx context.Context, subjectID string, dayStart, dayEnd time.Time) ([]models.BusyInterval, error) {
	intervals := []models.BusyInterval{}
	for _, account := range c.registry.Accounts(subjectID) {
		accountIntervals, err := c.fetchAccount(ctx, account, dayStart, dayEnd)
		if err != nil {
			slog.Warn("calendar source failed for account, skipping",
				"account", account, "error", err)
			continue
		}
		intervals = append(intervals, accountIntervals...)
	}
	return intervals, nil
}

func (c *CalendarClient) fetchAccount(ctx context.Context, account string, dayStart, dayEnd time.Time) ([]models.BusyInterval, error) {
	token, ok, err := c.tokens.AccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("no credential for account, skipping", "account", account)
		return nil, nil
	}

	query := url.Values{}
	query.Set("timeMin", dayStart.Format(time.RFC3339))
	query.Set("timeMax", dayEnd.Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+"/calendars/primary/events?"+query.Encode(), nil)
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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return ParseCalendarEvents(body)
}

// eventsPayload mirrors the wire shape of an events listing. All-day events
// carry a date, timed events a dateTime; transparency "transparent" marks an
// event as non-blocking.
type eventsPayload struct {
	Items []struct {
		Start struct {
			Date     string `json:"date"`
			DateTime string `json:"dateTime"`
		} `json:"start"`
		End struct {
			Date     string `json:"date"`
			DateTime string `json:"dateTime"`
		} `json:"end"`
		Transparency string `json:"transparency"`
		Status       string `json:"status"`
	} `json:"items"`
}

// ParseCalendarEvents converts an events listing into BusyIntervals.
// Cancelled events and events with unparsable times are dropped.
func ParseCalendarEvents(body []byte) ([]models.BusyInterval, error) {
	var payload eventsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}

	intervals := make([]models.BusyInterval, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Status == "cancelled" {
			continue
		}

		interval := models.BusyInterval{
			Transparent: item.Transparency == "transparent",
		}

		switch {
		case item.Start.Date != "":
			start, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
			if err != nil {
				continue
			}
			interval.Start = start
			interval.End = start.AddDate(0, 0, 1)
			interval.AllDay = true
		case item.Start.DateTime != "":
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				continue
			}
			interval.Start = start
			interval.End = end
		default:
			continue
		}

		intervals = append(intervals, interval)
	}
	return intervals, nil
}
