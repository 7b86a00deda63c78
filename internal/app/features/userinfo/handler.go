// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"
	"time"

	loginstore "github.com/dalemusser/noticeboard/internal/app/store/logins"
	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/dalemusser/noticeboard/internal/app/system/jsonutil"
	"github.com/dalemusser/noticeboard/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const recentLoginLimit = 20

// Handler serves the identity of the current principal and their recent
// login attempts.
type Handler struct {
	Logins *loginstore.Store
	Log    *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(logins *loginstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Logins: logins, Log: logger}
}

type meResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// ServeMe handles GET /auth/me.
//
//	{ "id": "...", "username": "...", "name": "...", "role": "admin" }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Error(w, r, h.Log, apperr.ErrUnauthorized)
		return
	}
	jsonutil.Write(w, http.StatusOK, meResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	})
}

type loginResponse struct {
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ServeLogins handles GET /auth/me/logins: the principal's most recent
// login attempts, newest first.
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Error(w, r, h.Log, apperr.ErrUnauthorized)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "recent logins")
	defer cancel()

	recs, err := h.Logins.Recent(ctx, user.Username, recentLoginLimit)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}

	out := make([]loginResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, loginResponse{
			Outcome:   rec.Outcome,
			IP:        rec.IP,
			UserAgent: rec.UserAgent,
			CreatedAt: rec.CreatedAt,
		})
	}
	jsonutil.Write(w, http.StatusOK, out)
}
