package api

import (
	"net/http"
	"time"

	"schoolhub/internal/session"
	"schoolhub/pkg/types"
)

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Role      string `json:"role" validate:"required,oneof=student teacher parent"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User      *types.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// POST /api/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[registerRequest](s, w, r)
	if !ok {
		return
	}

	user, err := s.sessions.Register(r.Context(), session.Registration{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      types.Role(req.Role),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{User: user})
}

// POST /api/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[loginRequest](s, w, r)
	if !ok {
		return
	}

	sess, user, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: sess.Token, ExpiresAt: &sess.ExpiresAt})
}

// POST /api/auth/logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.writeDomainError(w, r, err, "session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/auth/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	user, err := s.store.GetUser(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
