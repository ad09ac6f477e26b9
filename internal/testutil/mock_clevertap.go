// Package testutil provides testing utilities for the CleverTap connector.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock CleverTap response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by the mock server.
type RecordedRequest struct {
	Method string
	// Host is the host the client addressed, before Transport redirected it.
	Host   string
	Path   string
	Cursor string
	Body   string
	Header http.Header
}

// MockCleverTap is a configurable mock of the CleverTap profiles API.
//
// The POST (query) answer is set with SetQueryResponse. GET answers are
// keyed by the cursor query parameter; several answers for one cursor are
// served in order, the last one repeating.
type MockCleverTap struct {
	server *httptest.Server
	mu     sync.RWMutex

	query    []MockResponse
	pages    map[string][]MockResponse
	fallback func(w http.ResponseWriter, r *http.Request)

	requests []RecordedRequest
}

// originalHostHeader carries the addressed host through the redirecting transport.
const originalHostHeader = "X-Test-Original-Host"

// NewMockCleverTap creates a new mock CleverTap server.
func NewMockCleverTap() *MockCleverTap {
	mock := &MockCleverTap{
		pages: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the mock server URL.
func (m *MockCleverTap) URL() string {
	return m.server.URL
}

// Endpoint returns the profiles URL on the mock server.
func (m *MockCleverTap) Endpoint() string {
	return m.server.URL + "/1/profiles.json"
}

// Close shuts down the mock server.
func (m *MockCleverTap) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockCleverTap) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetQueryResponse configures the answers to the cursor request (POST).
func (m *MockCleverTap) SetQueryResponse(resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.query = resp
}

// SetPage configures the answers to GET ?cursor=<cursor>.
func (m *MockCleverTap) SetPage(cursor string, resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[cursor] = resp
}

// SetFallback sets a handler for GET cursors without a configured page.
func (m *MockCleverTap) SetFallback(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = handler
}

// Requests returns a copy of the requests received so far.
func (m *MockCleverTap) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCleverTap) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// CountMethod returns the number of requests with the given method.
func (m *MockCleverTap) CountMethod(method string) int {
	n := 0
	for _, r := range m.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

// HTTPClient returns a client whose requests to any host are sent to the
// mock server, so production URLs such as https://in1.api.clevertap.com
// can be used unchanged in tests.
func (m *MockCleverTap) HTTPClient() *http.Client {
	return &http.Client{Transport: &redirectTransport{target: m.server.URL}}
}

func (m *MockCleverTap) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	host := r.Header.Get(originalHostHeader)
	if host == "" {
		host = r.Host
	}
	cursor := r.URL.Query().Get("cursor")

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Host:   host,
		Path:   r.URL.Path,
		Cursor: cursor,
		Body:   string(body),
		Header: r.Header.Clone(),
	})

	var resp *MockResponse
	var fallback func(w http.ResponseWriter, r *http.Request)
	switch r.Method {
	case http.MethodPost:
		resp = next(&m.query)
	case http.MethodGet:
		if queue, ok := m.pages[cursor]; ok {
			resp = next(&queue)
			m.pages[cursor] = queue
		} else {
			fallback = m.fallback
		}
	}
	m.mu.Unlock()

	switch {
	case resp != nil:
		write(w, *resp)
	case fallback != nil:
		fallback(w, r)
	default:
		write(w, NewFailResponse(fmt.Sprintf("no mock for %s cursor %q", r.Method, cursor)))
	}
}

// next pops the first response, keeping the last one for repeated calls.
func next(queue *[]MockResponse) *MockResponse {
	if len(*queue) == 0 {
		return nil
	}
	resp := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return &resp
}

func write(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// redirectTransport rewrites every request to the mock server.
type redirectTransport struct {
	target string
}

func (t *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(originalHostHeader, req.URL.Host)
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.target, "http://")
	req.Host = ""
	return http.DefaultTransport.RoundTrip(req)
}

// NewCursorResponse creates a successful query answer carrying a cursor.
func NewCursorResponse(cursor string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"status":"success","cursor":%q}`, cursor),
	}
}

// NewEmptyQueryResponse creates a successful query answer without a cursor.
func NewEmptyQueryResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"success"}`,
	}
}

// NewPageResponse creates a page with the given raw JSON records.
// An empty next cursor ends the download.
func NewPageResponse(next string, records ...string) MockResponse {
	body := `{"status":"success","records":[` + strings.Join(records, ",") + `]`
	if next != "" {
		body += fmt.Sprintf(`,"cursor":%q`, next)
	}
	body += "}"
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// NewFailResponse creates a 200 response with a failure envelope.
func NewFailResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"status":"fail","error":%q}`, message),
	}
}

// NewInProgressResponse creates the "query still in progress" answer.
func NewInProgressResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"fail","error":"Request still in progress","code":2}`,
	}
}

// NewHTTPErrorResponse creates a non-2xx response with a failure envelope.
func NewHTTPErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body:       fmt.Sprintf(`{"status":"fail","error":%q,"code":%d}`, message, statusCode),
	}
}

// NewProfileRecord creates a raw profile record JSON object.
func NewProfileRecord(identity string, fields ...string) string {
	parts := []string{fmt.Sprintf(`"identity":%q`, identity)}
	parts = append(parts, fields...)
	return "{" + strings.Join(parts, ",") + "}"
}

// EndlessPages returns a fallback handler that answers every cursor with
// one record and a fresh cursor, simulating a server that never finishes.
func EndlessPages() func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	n := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n++
		page := n
		mu.Unlock()
		write(w, NewPageResponse(fmt.Sprintf("C%d", page+1), NewProfileRecord(fmt.Sprintf("u%d", page))))
	}
}
