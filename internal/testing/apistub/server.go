// Package apistub is an in-memory implementation of the operations API used
// by tests. It serves the /auth and /purchase endpoints with the same status
// codes and error bodies as the real backend.
package apistub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

// Call is one request seen by the stub.
type Call struct {
	Method string
	Path   string
}

type fault struct {
	status int
	detail string
	// skip is the number of matching requests served normally first.
	skip int
}

type user struct {
	id   int64
	hash []byte
}

// Server holds the stub state. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	secret     []byte
	tokenTTL   time.Duration
	now        func() time.Time
	rateLimit  int
	rateWindow time.Duration

	users   map[string]user
	issued  map[string]struct{}
	revoked map[string]struct{}

	nextID       int64
	suppliers    map[int64]purchase.Supplier
	orders       map[int64]purchase.PurchaseOrder
	receipts     map[int64]purchase.PurchaseReceipt
	totalSkew    map[string]string
	calls        []Call
	faults       map[string]fault
	handler      http.Handler
	handlerBuilt sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued credentials.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRateLimit answers 429 once more than n requests arrive within window.
func WithRateLimit(n int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = n
		s.rateWindow = window
	}
}

// New builds an empty stub.
func New(opts ...Option) *Server {
	s := &Server{
		secret:    []byte("apistub-signing-key"),
		tokenTTL:  time.Hour,
		now:       time.Now,
		users:     make(map[string]user),
		issued:    make(map[string]struct{}),
		revoked:   make(map[string]struct{}),
		suppliers: make(map[int64]purchase.Supplier),
		orders:    make(map[int64]purchase.PurchaseOrder),
		receipts:  make(map[int64]purchase.PurchaseReceipt),
		totalSkew: make(map[string]string),
		faults:    make(map[string]fault),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the stub router.
func (s *Server) Handler() http.Handler {
	s.handlerBuilt.Do(func() {
		r := chi.NewRouter()
		for _, mw := range s.middlewareStack() {
			r.Use(mw)
		}
		r.Route("/auth", s.mountAuth)
		r.Route("/purchase", func(r chi.Router) {
			r.Use(s.authenticate)
			s.mountPurchase(r)
		})
		s.handler = r
	})
	return s.handler
}

// SetTokenTTL changes the lifetime of credentials issued from now on.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

// AddUser registers a login.
func (s *Server) AddUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[strings.ToLower(strings.TrimSpace(email))] = user{id: s.nextID, hash: hash}
	return nil
}

// Fail makes the next request matching method and path answer status.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.FailAfter(method, path, 0, status, detail)
}

// FailAfter serves skip matching requests normally, then answers the next
// one with status.
func (s *Server) FailAfter(method, path string, skip, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, detail: detail, skip: skip}
}

// Calls returns every request seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts requests matching method and path. An empty method or
// path matches anything.
func (s *Server) CallCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if (method == "" || c.Method == method) && (path == "" || c.Path == path) {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// SkewTotal makes the next write to path report total instead of the
// computed amount.
func (s *Server) SkewTotal(path, total string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSkew[path] = total
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}
