// Package backend is an in-memory stand-in for the NexusForge registry
// used by package tests. It speaks the same REST and WebSocket surface as
// the real service and records every request it receives.
package backend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/nexusforge/console/pkg/common/models"
)

const (
	testSecret = "nexusforge-test-signing-key"

	// NotificationsPath is where the push endpoint is mounted.
	NotificationsPath = "/ws/notifications"
)

// Request is one recorded call.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type failure struct {
	status int
	detail string
}

type Option func(*Server)

// WithSignupToken makes signup answer with a token like login does. By
// default signup only returns a message.
func WithSignupToken() Option {
	return func(s *Server) { s.signupIssuesToken = true }
}

type Server struct {
	URL string

	srv      *httptest.Server
	tokens   *tokenSigner
	upgrader websocket.Upgrader

	mu                sync.Mutex
	signupIssuesToken bool
	store             *store
	requests          []Request
	failures          map[string]failure
	holds             map[string]chan struct{}

	hubMu   sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// New starts a fake registry that shuts down when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	tokens, err := newTokenSigner(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("token signer: %v", err)
	}

	s := &Server{
		tokens:   tokens,
		store:    newStore(),
		failures: make(map[string]failure),
		holds:    make(map[string]chan struct{}),
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.record(s.routes()))
	s.URL = s.srv.URL
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for key, ch := range s.holds {
		close(ch)
		delete(s.holds, key)
	}
	s.mu.Unlock()

	s.DropClients()
	s.srv.Close()
}

// WebSocketURL is the push endpoint address.
func (s *Server) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + NotificationsPath
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(NotificationsPath, s.handlePush).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/factories", s.handleListFactories).Methods(http.MethodGet)
	api.HandleFunc("/factories", s.handleCreateFactory).Methods(http.MethodPost)
	api.HandleFunc("/factories/{id:[0-9]+}", s.handleDeleteFactory).Methods(http.MethodDelete)

	api.HandleFunc("/algorithms", s.handleListAlgorithms).Methods(http.MethodGet)
	api.HandleFunc("/algorithms/factory/{id:[0-9]+}", s.handleListFactoryAlgorithms).Methods(http.MethodGet)
	api.HandleFunc("/algorithms/{id:[0-9]+}", s.handleCreateAlgorithm).Methods(http.MethodPost)
	api.HandleFunc("/algorithms/{id:[0-9]+}", s.handleDeleteAlgorithm).Methods(http.MethodDelete)

	api.HandleFunc("/models/all", s.handleListModels).Methods(http.MethodGet)
	api.HandleFunc("/models/recent-files", s.handleRecentFiles).Methods(http.MethodGet)
	api.HandleFunc("/models/algorithm/{id:[0-9]+}", s.handleListAlgorithmModels).Methods(http.MethodGet)
	api.HandleFunc("/models/files/{id:[0-9]+}", s.handleListFiles).Methods(http.MethodGet)
	api.HandleFunc("/models/upload/{id:[0-9]+}", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/models/download/{id:[0-9]+}", s.handleDownload).Methods(http.MethodGet)
	api.HandleFunc("/models/file/{id:[0-9]+}", s.handleDeleteFile).Methods(http.MethodDelete)
	api.HandleFunc("/models/{id:[0-9]+}/promote", s.handlePromote).Methods(http.MethodPut)
	api.HandleFunc("/models/{id:[0-9]+}/rollback", s.handleRollback).Methods(http.MethodPut)
	api.HandleFunc("/models/{id:[0-9]+}", s.handleCreateModel).Methods(http.MethodPost)
	api.HandleFunc("/models/{id:[0-9]+}", s.handleUpdateModel).Methods(http.MethodPut)
	api.HandleFunc("/models/{id:[0-9]+}", s.handleDeleteModel).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/models-per-factory", s.handleModelsPerFactory).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/models-per-algorithm", s.handleModelsPerAlgorithm).Methods(http.MethodGet)

	return r
}

// record logs the request, then applies injected failures and holds.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		fail, failing := s.failures[key]
		hold := s.holds[key]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			respondDetail(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if _, err := s.tokens.Validate(token); err != nil {
			respondDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes every request to method+path answer status with detail until
// Recover is called.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hold parks requests to method+path until the returned function is
// called or the client gives up.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	key := method + " " + path

	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[key] == ch {
				delete(s.holds, key)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path. An empty path
// matches every path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Method == method && (path == "" || req.Path == path) {
			n++
		}
	}
	return n
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Token issues a valid access token for user.
func (s *Server) Token(t testing.TB, user models.User) string {
	t.Helper()
	token, err := s.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}
