// Package testutil provides a scriptable stand-in for the todo API.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is a request the server received.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Decode unmarshals the request body into v.
func (r Request) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s %s body %q: %v", r.Method, r.Path, r.Body, err)
	}
}

// Responder returns the status and body for a request. A []byte or string
// body is written as is, anything else is JSON encoded.
type Responder func(r *http.Request, body []byte) (int, any)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	mux      *http.ServeMux
	routes   map[string]Responder
	requests []Request
}

// NewServer starts a server that answers 404 for every route not
// registered with Handle. It is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{mux: http.NewServeMux(), routes: map[string]Responder{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers fn for a ServeMux pattern such as "PATCH /todo/{id}".
// Registering the same pattern again replaces the responder.
func (s *Server) Handle(pattern string, fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[pattern]; !ok {
		s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			h := s.routes[pattern]
			s.mu.Unlock()
			body, _ := io.ReadAll(r.Body)
			status, out := h(r, body)
			write(w, status, out)
		})
	}
	s.routes[pattern] = fn
}

// Reply registers a fixed answer for pattern.
func (s *Server) Reply(pattern string, status int, body any) {
	s.Handle(pattern, func(*http.Request, []byte) (int, any) { return status, body })
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
	s.mu.Unlock()

	r.Body = io.NopCloser(bytes.NewReader(body))
	_, pattern := s.mux.Handler(r)
	if pattern == "" {
		write(w, http.StatusNotFound, Envelope("not found", nil))
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Envelope builds a {message, data} response body. A nil data omits the
// field.
func Envelope(message string, data any) map[string]any {
	out := map[string]any{"message": message}
	if data != nil {
		out["data"] = data
	}
	return out
}

func write(w http.ResponseWriter, status int, body any) {
	switch b := body.(type) {
	case nil:
		w.WriteHeader(status)
	case []byte:
		w.WriteHeader(status)
		w.Write(b)
	case string:
		w.WriteHeader(status)
		io.WriteString(w, b)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(b)
	}
}
