package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"kharcha/internal/core"
	"kharcha/internal/gate"
	"kharcha/internal/log"
)

// sessionKey hashes the presented password so the cache never holds it.
func sessionKey(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// requireAuth checks HTTP Basic credentials against the gate. The user name
// part is ignored: there is a single local account. Verified passwords are
// cached for the session TTL.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		if !ok || password == "" {
			s.metrics.authFailures.Inc()
			UnauthorizedError("credentials required").Write(w)
			return
		}

		key := sessionKey(password)
		if _, hit := s.sessions.Get(key); hit {
			next(w, r)
			return
		}

		u, err := s.gate.Unlock(r.Context(), password)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrNoUser):
			s.metrics.authFailures.Inc()
			UnauthorizedError(err.Error()).Write(w)
			return
		default:
			s.writeError(w, r, err)
			return
		}
		s.sessions.Set(key, u.Name)
		next(w, r)
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	_, password, _ := r.BasicAuth()
	name, _ := s.sessions.Get(sessionKey(password))
	NewJSONResponse().Data(map[string]string{"name": name}).Write(w)
}

func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := s.gate.Exists(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]bool{"exists": exists}).Write(w)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Hint     string `json:"hint"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.gate.Create(r.Context(), req.Name, req.Password, req.Hint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]string{"name": u.Name}).Write(w)
}

func (s *Server) handleUserHint(w http.ResponseWriter, r *http.Request) {
	hint, err := s.gate.Hint(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]string{"hint": hint}).Write(w)
}

type changePasswordRequest struct {
	Current            string `json:"current"`
	Next               string `json:"next"`
	Name               string `json:"name"`
	SecurityHint       string `json:"securityHint"`
	BiometricPreferred bool   `json:"biometricPreferred"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := s.gate.ChangePassword(r.Context(), req.Current, req.Next, gate.UserUpdate{
		Name:               req.Name,
		SecurityHint:       req.SecurityHint,
		BiometricPreferred: req.BiometricPreferred,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dropSessions(r)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type resetPasswordRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Password == "" {
		s.writeError(w, r, core.ErrEmptyPassword)
		return
	}
	if err := s.gate.Reset(r.Context(), req.Name, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dropSessions(r)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// dropSessions forgets every cached credential after the password changed.
func (s *Server) dropSessions(r *http.Request) {
	s.sessions.Purge()
	s.logger.InfoContext(r.Context(), "Session cache cleared", log.FieldOperation, log.OpUnlock)
}
