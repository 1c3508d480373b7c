package apistub

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// middlewareStack installs the stub's middleware chain.
func (s *Server) middlewareStack() []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					writeDetail(w, http.StatusInternalServerError, err.Error())
					return
				}
				w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
				next.ServeHTTP(w, r)
			})
		},
		s.record,
	}
	if s.rateLimit > 0 {
		window := s.rateWindow
		if window <= 0 {
			window = time.Minute
		}
		middlewares = append(middlewares, httprate.Limit(s.rateLimit, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeDetail(w, http.StatusTooManyRequests, "Too many requests")
			}),
		))
	}
	middlewares = append(middlewares, s.injectFaults)
	return middlewares
}

// record counts every request by method and path.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// injectFaults answers with a queued failure for a matching request.
func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f, ok := s.faults[key]
		if ok && f.skip > 0 {
			f.skip--
			s.faults[key] = f
			ok = false
		} else if ok {
			delete(s.faults, key)
		}
		s.mu.Unlock()
		if ok {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}
