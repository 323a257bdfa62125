// Package toolclient calls the tool service of a running studydesk server
// over the Connect JSON protocol.
package toolclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/studydesk/internal/server"
	"github.com/at-ishikawa/studydesk/internal/tools"
)

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	retryDelay       time.Duration
}

// ToolInfo describes a tool offered by the server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RemoteError is a Connect error returned by the server.
type RemoteError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("response error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

type listToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}

type listResourcesResponse struct {
	Resources []tools.Resource `json:"resources"`
}

type readResourceResponse struct {
	Contents []tools.Contents `json:"contents"`
}

func NewClient(serverURL string, retryAttempts uint, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(serverURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Connect-Protocol-Version", "1")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
		retryDelay:       100 * time.Millisecond,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

func (client *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var result *listToolsResponse
	if err := client.withRetry(ctx, func() error {
		response := &listToolsResponse{}
		if err := client.post(ctx, server.ListToolsProcedure, map[string]any{}, response); err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool runs the named tool with args and returns its result object.
func (client *Client) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	var result map[string]any
	if err := client.withRetry(ctx, func() error {
		response := map[string]any{}
		if err := client.post(ctx, server.CallToolProcedure, map[string]any{
			"name":      name,
			"arguments": args,
		}, &response); err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *Client) ListResources(ctx context.Context) ([]tools.Resource, error) {
	var result *listResourcesResponse
	if err := client.withRetry(ctx, func() error {
		response := &listResourcesResponse{}
		if err := client.post(ctx, server.ListResourcesProcedure, map[string]any{}, response); err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

func (client *Client) ReadResource(ctx context.Context, uri string) ([]tools.Contents, error) {
	var result *readResourceResponse
	if err := client.withRetry(ctx, func() error {
		response := &readResourceResponse{}
		if err := client.post(ctx, server.ReadResourceProcedure, map[string]any{"uri": uri}, response); err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return nil, err
	}
	return result.Contents, nil
}

func (client *Client) post(ctx context.Context, procedure string, body any, result any) error {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&RemoteError{}).
		Post(procedure)
	if err != nil {
		return fmt.Errorf("httpClient.Post(%s) > %w", procedure, err)
	}
	if response.IsError() {
		remoteErr, ok := response.Error().(*RemoteError)
		if !ok || remoteErr == nil || remoteErr.Code == "" {
			remoteErr = &RemoteError{Message: response.String()}
		}
		remoteErr.StatusCode = response.StatusCode()
		return remoteErr
	}
	return nil
}

func (client *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		func() error {
			if err := fn(); err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(client.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// isRetryableError reports connection failures, 5xx responses and rate
// limiting.
func isRetryableError(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode >= 500 || remoteErr.StatusCode == 429
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout")
}
