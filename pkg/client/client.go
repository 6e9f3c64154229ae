// Package client is a typed Go client for the todoapi RPC surface.
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

	"github.com/Kerhoff/todoapi/internal/models"
)

type (
	Todo            = models.Todo
	CreateTodoInput = models.CreateTodoInput
	UpdateTodoInput = models.UpdateTodoInput
	DeleteResult    = models.DeleteResult
	Stats           = models.Stats
)

// Error codes returned by the server.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeMethodNotSupported  = "METHOD_NOT_SUPPORTED"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// Error is a failure reported by the server.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("todoapi: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is a NOT_FOUND error from the server.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNotFound
}

type ClientOptions struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(options ClientOptions) (*Client, error) {
	u, err := url.Parse(options.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", options.BaseURL)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func (c *Client) CreateTodo(ctx context.Context, in CreateTodoInput) (*Todo, error) {
	var out Todo
	if err := c.call(ctx, "createTodo", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTodos(ctx context.Context) ([]Todo, error) {
	var out []Todo
	if err := c.call(ctx, "getTodos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTodo sends only the fields set in in; see models.Some.
func (c *Client) UpdateTodo(ctx context.Context, in UpdateTodoInput) (*Todo, error) {
	var out Todo
	if err := c.call(ctx, "updateTodo", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleTodo(ctx context.Context, id int64) (*Todo, error) {
	var out Todo
	if err := c.call(ctx, "toggleTodo", models.ToggleTodoInput{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id int64) (*DeleteResult, error) {
	var out DeleteResult
	if err := c.call(ctx, "deleteTodo", models.DeleteTodoInput{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.call(ctx, "getStats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func (c *Client) call(ctx context.Context, procedure string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+procedure, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{
			Status:  resp.StatusCode,
			Code:    CodeInternalServerError,
			Message: fmt.Sprintf("unreadable response: %v", err),
		}
	}
	if env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	if resp.StatusCode/100 != 2 {
		return &Error{Status: resp.StatusCode, Code: CodeInternalServerError, Message: resp.Status}
	}

	return json.Unmarshal(env.Result, out)
}
