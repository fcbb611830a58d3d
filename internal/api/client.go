// Package api is the typed client for the clinical backend collaborators.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

// ErrEmptyQuestion rejects blank query submissions before any network call.
var ErrEmptyQuestion = errors.New("question must not be empty")

// BackendError reports a non-2xx response from the backend.
type BackendError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s failed with status %d", e.Method, e.Path, e.StatusCode)
}

type apiErrorBody struct {
	Detail string `json:"detail"`
	Err    string `json:"error"`
}

type queryRequest struct {
	Question string `json:"question"`
}

type alertsPayload struct {
	Alerts   json.RawMessage `json:"alerts"`
	Metrics  *Metrics        `json:"metrics"`
	LastScan string          `json:"lastScan"`
}

type Client struct {
	http *resty.Client
	log  *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(400 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retries stay on the read-only paths; a query submission must
			// map 1:1 to a user action.
			if r != nil && r.Request != nil && r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	return &Client{http: rc, log: log}
}

// FetchAlerts runs one radar scan. An absent, null, or non-array alerts
// field decodes to an empty set rather than failing the fetch; a malformed
// body or error status is a real failure.
func (c *Client) FetchAlerts(ctx context.Context) (*AlertFeed, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/alerts")
	if err != nil {
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}
	if resp.IsError() {
		return nil, c.backendError(resp)
	}

	var payload alertsPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode alerts response: %w", err)
	}

	feed := &AlertFeed{
		Alerts:   decodeAlertList(payload.Alerts),
		LastScan: payload.LastScan,
	}
	if payload.Metrics != nil {
		feed.Metrics = *payload.Metrics
	} else {
		feed.Metrics = Metrics{ActiveAlerts: len(feed.Alerts)}
	}
	return feed, nil
}

func decodeAlertList(raw json.RawMessage) []Alert {
	if len(raw) == 0 {
		return []Alert{}
	}
	var alerts []Alert
	if err := json.Unmarshal(raw, &alerts); err != nil || alerts == nil {
		return []Alert{}
	}
	return alerts
}

// SubmitQuery sends one natural-language question to the query backend.
func (c *Client) SubmitQuery(ctx context.Context, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(queryRequest{Question: question}).
		Post("/api/query")
	if err != nil {
		return nil, fmt.Errorf("submit query: %w", err)
	}
	if resp.IsError() {
		return nil, c.backendError(resp)
	}

	var result QueryResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if result.Results == nil {
		result.Results = []PatientRow{}
	}
	return &result, nil
}

// AnalyticsRanges lists the windows the analytics endpoint accepts.
var AnalyticsRanges = []string{"7d", "30d", "90d", "1y"}

func (c *Client) FetchAnalytics(ctx context.Context, window string) (*AnalyticsReport, error) {
	supported := false
	for _, r := range AnalyticsRanges {
		if r == window {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported analytics range %q", window)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("range", window).
		Get("/api/analytics")
	if err != nil {
		return nil, fmt.Errorf("fetch analytics: %w", err)
	}
	if resp.IsError() {
		return nil, c.backendError(resp)
	}

	var report AnalyticsReport
	if err := json.Unmarshal(resp.Body(), &report); err != nil {
		return nil, fmt.Errorf("decode analytics response: %w", err)
	}
	return &report, nil
}

func (c *Client) FetchPatient(ctx context.Context, patientID string) (*PatientProfile, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, errors.New("patient id is required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", patientID).
		Get("/api/patient/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch patient %s: %w", patientID, err)
	}
	if resp.IsError() {
		return nil, c.backendError(resp)
	}

	var profile PatientProfile
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("decode patient response: %w", err)
	}
	return &profile, nil
}

func (c *Client) backendError(resp *resty.Response) *BackendError {
	message := ""
	var body apiErrorBody
	if json.Unmarshal(resp.Body(), &body) == nil {
		if detail := strings.TrimSpace(body.Detail); detail != "" {
			message = detail
		} else {
			message = strings.TrimSpace(body.Err)
		}
	}
	backendErr := &BackendError{
		Method:     resp.Request.Method,
		Path:       resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Message:    message,
	}
	c.log.Warn("backend request failed",
		zap.String("method", backendErr.Method),
		zap.String("url", backendErr.Path),
		zap.Int("status", backendErr.StatusCode),
	)
	return backendErr
}
