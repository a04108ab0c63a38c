package api

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// fakeExecutor scripts responses per URL path substring and records every
// request it sees.
type fakeExecutor struct {
	mu        sync.Mutex
	responses map[string]*Response
	errs      map[string]error
	requests  []*Request
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		responses: make(map[string]*Response),
		errs:      make(map[string]error),
	}
}

func (f *fakeExecutor) respond(pathPart string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[pathPart] = &Response{StatusCode: status, Body: []byte(body)}
}

func (f *fakeExecutor) fail(pathPart string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[pathPart] = err
}

func (f *fakeExecutor) Do(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	for part, err := range f.errs {
		if strings.Contains(req.URL, part) {
			return nil, err
		}
	}
	for part, resp := range f.responses {
		if strings.Contains(req.URL, part) {
			return resp, nil
		}
	}
	return &Response{StatusCode: 200, Body: []byte("{}")}, nil
}

func (f *fakeExecutor) lastRequest() *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeExecutor) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func decodeBody(req *Request) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(req.Body, &m)
	return m
}
