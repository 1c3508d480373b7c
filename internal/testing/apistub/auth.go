package apistub

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

type principal struct {
	userID  int64
	tokenID string
}

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/logout", s.logout)
		r.Post("/refresh-token", s.refresh)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token, err := s.issue(req.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ctxKey{}).(principal)
	s.mu.Lock()
	s.revoked[p.tokenID] = struct{}{}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ctxKey{}).(principal)
	subject := r.Context().Value(subjectKey{}).(string)
	token, err := s.issue(subject)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.revoked[p.tokenID] = struct{}{}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type subjectKey struct{}

// Issue signs a credential for email without a password check.
func (s *Server) Issue(email string) (string, error) {
	return s.issue(email)
}

func (s *Server) issue(email string) (string, error) {
	s.mu.Lock()
	now, ttl := s.now(), s.tokenTTL
	s.mu.Unlock()
	id := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   strings.ToLower(strings.TrimSpace(email)),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.issued[id] = struct{}{}
	s.mu.Unlock()
	return signed, nil
}

// RevokeAll invalidates every credential issued so far.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.issued {
		s.revoked[id] = struct{}{}
	}
}

var errRevoked = errors.New("credential revoked")

func (s *Server) verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, errRevoked
	}
	return claims, nil
}

// authenticate rejects requests without a valid bearer credential.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := s.verify(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		s.mu.Lock()
		u := s.users[claims.Subject]
		s.mu.Unlock()
		ctx := context.WithValue(r.Context(), ctxKey{}, principal{userID: u.id, tokenID: claims.ID})
		ctx = context.WithValue(ctx, subjectKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
