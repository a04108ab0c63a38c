package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Method is an HTTP request method supported by the API.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
)

// Request is one fully-built network request: URL with query parameters
// already encoded, headers attached, and a serialized body for POST.
type Request struct {
	Method  Method
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the raw outcome of one request. Non-2xx responses are returned
// here, not as errors; only transport failures produce an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// Executor is the transport boundary: it executes exactly one request.
// Implementations must be safe for concurrent use.
type Executor interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPExecutor is the default Executor on net/http.
type HTTPExecutor struct {
	client *http.Client
}

// NewHTTPExecutor creates an executor with the SDK's default timeout.
func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{
		client: &http.Client{Timeout: 80 * time.Second},
	}
}

// Do executes the request and reads the full response body, whichever status
// came back.
func (e *HTTPExecutor) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
