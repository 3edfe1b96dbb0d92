package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"student-records/models"
)

// Gateway is the remote side of an edit session. Calls are not retried.
type Gateway interface {
	FetchStudent(ctx context.Context, id string) (*models.StudentDetail, error)
	FetchCourseCatalog(ctx context.Context) ([]models.Option, error)
	FetchClassCatalog(ctx context.Context) ([]models.Option, error)
	UpdateStudent(ctx context.Context, id string, payload models.StudentRequest) error
}

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// ServerValidationError is a 400/422 answer to a write.
type ServerValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ServerValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server rejected request (%d): %s %v", e.Status, e.Message, e.Fields)
}

// NetworkError covers transport failures and unexpected status codes.
type NetworkError struct {
	Op     string // e.g. "GET /api/courses"
	Status int    // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPGateway talks to the records API over HTTP.
type HTTPGateway struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPGateway returns a gateway for baseURL. A nil client gets a 30s timeout client.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// FetchStudent handles GET /api/getStudent/{id}
func (g *HTTPGateway) FetchStudent(ctx context.Context, id string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := g.do(ctx, http.MethodGet, "/api/getStudent/"+url.PathEscape(id), nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// FetchCourseCatalog handles GET /api/courses
func (g *HTTPGateway) FetchCourseCatalog(ctx context.Context) ([]models.Option, error) {
	var courses []models.Option
	if err := g.do(ctx, http.MethodGet, "/api/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// FetchClassCatalog handles GET /api/classes
func (g *HTTPGateway) FetchClassCatalog(ctx context.Context) ([]models.Option, error) {
	var classes []models.Option
	if err := g.do(ctx, http.MethodGet, "/api/classes", nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// UpdateStudent handles PUT /api/edit/{id}
func (g *HTTPGateway) UpdateStudent(ctx context.Context, id string, payload models.StudentRequest) error {
	return g.do(ctx, http.MethodPut, "/api/edit/"+url.PathEscape(id), payload, nil)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out interface{}) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		buf, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var apiErr struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		_ = sonic.Unmarshal(raw, &apiErr)
		return &ServerValidationError{Status: resp.StatusCode, Message: apiErr.Error, Fields: apiErr.Fields}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
