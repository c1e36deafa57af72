// Package client is a typed HTTP client for the assessment API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (%d)", e.Status)
	}
	return e.Message
}

// ErrNoToken is returned by authenticated calls before Login.
var ErrNoToken = errors.New("missing auth token, please log in again")

// Client talks to one API base URL. Token is sent as a bearer token on authenticated calls.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New builds a client for baseURL, for example http://localhost:5001/api.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the bearer token.
func (c *Client) Token() string {
	return c.token
}

// Login authenticates and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var res models.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res, false); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var res dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &res, true); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// ListExams returns the caller's exam summaries. Empty filters are omitted.
func (c *Client) ListExams(ctx context.Context, department string, status models.ExamStatus) ([]models.ExamSummary, error) {
	q := url.Values{}
	if department != "" {
		q.Set("department", department)
	}
	if status != "" {
		q.Set("status", string(status))
	}
	path := "/exams"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res dto.ExamListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res, true); err != nil {
		return nil, err
	}
	return res.Exams, nil
}

func (c *Client) GetExam(ctx context.Context, id string) (*models.Exam, error) {
	var res dto.ExamResponse
	if err := c.do(ctx, http.MethodGet, "/exams/"+url.PathEscape(id), nil, &res, true); err != nil {
		return nil, err
	}
	return res.Exam, nil
}

func (c *Client) CreateExam(ctx context.Context, content dto.ExamContent) (*models.Exam, error) {
	var res dto.ExamResponse
	if err := c.do(ctx, http.MethodPost, "/exams", content, &res, true); err != nil {
		return nil, err
	}
	return res.Exam, nil
}

func (c *Client) UpdateExam(ctx context.Context, id string, content dto.ExamContent) (*models.Exam, error) {
	var res dto.ExamResponse
	if err := c.do(ctx, http.MethodPut, "/exams/"+url.PathEscape(id), content, &res, true); err != nil {
		return nil, err
	}
	return res.Exam, nil
}

func (c *Client) DeleteExam(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/exams/"+url.PathEscape(id), nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, auth bool) error {
	if auth && c.token == "" {
		return ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
