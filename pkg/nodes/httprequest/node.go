// Package httprequest provides the HTTP request node implementation for workflow graph execution.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/template"
)

const (
	OutputPortSuccess = "success"
	OutputPortError   = "error"
	InputPortMain     = "main"
)

// HTTPRequestNode implements the Node interface for calling external HTTP
// endpoints from a workflow.
type HTTPRequestNode struct {
	id     string
	config HTTPRequestConfig
	client *http.Client
}

// HTTPRequestConfig defines the configuration for HTTP request nodes.
type HTTPRequestConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
	Timeout int               `json:"timeout"`
	Retries RetryConfig       `json:"retries"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	Attempts int `json:"attempts"`
	Delay    int `json:"delay"` // milliseconds between attempts
}

// NewHTTPRequestNode creates a new HTTP request node.
func NewHTTPRequestNode(id string, config map[string]any) (*HTTPRequestNode, error) {
	httpConfig := HTTPRequestConfig{
		Method:  http.MethodGet,
		Headers: make(map[string]string),
		Timeout: 30,
		Retries: RetryConfig{Attempts: 1},
	}

	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	httpConfig.URL = url

	if method, ok := config["method"].(string); ok && method != "" {
		httpConfig.Method = strings.ToUpper(method)
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				httpConfig.Headers[k] = strVal
			}
		}
	}

	if body, ok := config["body"].(string); ok {
		httpConfig.Body = body
	}

	if timeout, ok := numberField(config, "timeout"); ok {
		httpConfig.Timeout = timeout
	}

	if retries, ok := config["retries"].(map[string]any); ok {
		if attempts, ok := numberField(retries, "attempts"); ok {
			httpConfig.Retries.Attempts = attempts
		}

		if delay, ok := numberField(retries, "delay"); ok {
			httpConfig.Retries.Delay = delay
		}
	}

	return &HTTPRequestNode{
		id:     id,
		config: httpConfig,
		client: &http.Client{Timeout: time.Duration(httpConfig.Timeout) * time.Second},
	}, nil
}

func numberField(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// ID returns the node ID.
func (n *HTTPRequestNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *HTTPRequestNode) Type() string {
	return models.NodeTypeHTTPRequest
}

// Execute performs the HTTP request and routes the response to the matching
// output port.
func (n *HTTPRequestNode) Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	renderedURL, err := template.RenderWithContext(n.config.URL, &ctx)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render URL template: %v", err)), nil
	}

	urlStr, ok := renderedURL.(string)
	if !ok {
		return n.createErrorResult("URL template must render to string"), nil
	}

	var renderedBody string

	if n.config.Body != "" {
		rendered, err := template.RenderWithContext(n.config.Body, &ctx)
		if err != nil {
			return n.createErrorResult(fmt.Sprintf("failed to render body template: %v", err)), nil
		}

		switch v := rendered.(type) {
		case string:
			renderedBody = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return n.createErrorResult(fmt.Sprintf("failed to encode body: %v", err)), nil
			}

			renderedBody = string(encoded)
		}
	}

	var lastErr error

	for attempt := 1; attempt <= n.config.Retries.Attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(n.config.Retries.Delay) * time.Millisecond)
		}

		result, err := n.performRequest(urlStr, renderedBody)
		if err == nil {
			return map[string]models.NodeResult{
				OutputPortSuccess: {
					NodeID: n.id,
					Data:   result,
					Status: string(models.NodeStatusSuccess),
				},
			}, nil
		}

		lastErr = err

		// Client errors are not retried, only server and network failures.
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			break
		}
	}

	return n.createErrorResult(
		fmt.Sprintf("HTTP request failed after %d attempts: %v", n.config.Retries.Attempts, lastErr),
	), nil
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// performRequest executes a single HTTP request.
func (n *HTTPRequestNode) performRequest(url, body string) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.TODO(), n.config.Method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range n.config.Headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}

func (n *HTTPRequestNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		OutputPortError: {
			NodeID: n.id,
			Data: map[string]any{
				"error":   errorMessage,
				"success": false,
			},
			Status: string(models.NodeStatusError),
			Error:  errorMessage,
		},
	}
}

// InputPorts returns the input ports for the node.
func (n *HTTPRequestNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for triggering the HTTP request",
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *HTTPRequestNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Successful HTTP response data",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status_code": map[string]any{"type": "number"},
						"body":        map[string]any{"type": "string"},
						"json":        map[string]any{"type": "object"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Error information when the HTTP request fails",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":   map[string]any{"type": "string"},
						"success": map[string]any{"type": "boolean"},
					},
				},
			},
		},
	}
}

// InputRequirements returns the input coordination requirements for the HTTP request node.
func (n *HTTPRequestNode) InputRequirements() models.InputRequirements {
	return models.InputRequirements{
		RequiredPorts: []string{InputPortMain},
		OptionalPorts: []string{},
		WaitMode:      models.WaitModeAll,
		Timeout:       nil,
	}
}

// Validate validates the node configuration.
func (n *HTTPRequestNode) Validate(config map[string]any) error {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return errors.New("missing required field 'url'")
	}

	if method, ok := config["method"].(string); ok && method != "" {
		switch strings.ToUpper(method) {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
		default:
			return fmt.Errorf("unsupported HTTP method '%s'", method)
		}
	}

	return nil
}
