package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nippo-hq/nippo/pkg/auth"
	"github.com/nippo-hq/nippo/pkg/httputil"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/storage"
)

// maxCredentialLength caps login fields before they reach bcrypt; bcrypt
// itself only reads 72 bytes.
const maxCredentialLength = 256

// login handles POST /api/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "username and password are required")
		return
	}
	if len(req.Username) > maxCredentialLength || len(req.Password) > maxCredentialLength {
		httputil.WriteBadRequest(w, "username or password too long")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.WithError(err).Error("login: failed to load user")
		httputil.WriteInternalError(w, "database error")
		return
	}

	// A missing user and a wrong password produce the same response
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		if s.metrics != nil {
			s.metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		httputil.WriteUnauthorized(w, "invalid username or password")
		return
	}

	token, err := s.sessions.Create(user.ID, user.Username)
	if err != nil {
		s.logger.WithError(err).Error("login: failed to create session")
		httputil.WriteInternalError(w, "failed to create session")
		return
	}

	middleware.SetSessionCookie(w, token, int(s.sessions.TTL().Seconds()))
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	}
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).
		Info("user logged in")

	httputil.WriteSuccess(w, map[string]interface{}{
		"success": true,
		"message": "login successful",
		"user":    auth.Identity{UserID: user.ID, Username: user.Username},
	})
}

// register handles POST /api/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	// Policy runs before any store write; first failing rule wins
	if err := auth.ValidateCredentials(req.Username, req.Password, req.Email); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("register: failed to hash password")
		httputil.WriteInternalError(w, "registration failed")
		return
	}

	userID, err := s.store.CreateUser(r.Context(), req.Username, hash, req.Email)
	if errors.Is(err, storage.ErrConflict) {
		httputil.WriteBadRequest(w, "username or email already taken")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("register: failed to create user")
		httputil.WriteInternalError(w, "registration failed")
		return
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "username": req.Username}).
		Info("user registered")

	httputil.WriteCreated(w, map[string]interface{}{
		"success": true,
		"message": "registration complete",
		"userId":  userID,
	})
}

// logout handles POST /api/logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	// Destroy is idempotent; a stale cookie still logs out cleanly
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	httputil.WriteSuccess(w, map[string]interface{}{
		"success": true,
		"message": "logged out",
	})
}

// currentUser handles GET /api/user
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteUnauthorized(w, "login required")
		return
	}
	httputil.WriteSuccess(w, identity)
}
