// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	loginstore "github.com/dalemusser/noticeboard/internal/app/store/logins"
	userstore "github.com/dalemusser/noticeboard/internal/app/store/users"
	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/dalemusser/noticeboard/internal/app/system/jsonutil"
	"github.com/dalemusser/noticeboard/internal/app/system/metrics"
	"github.com/dalemusser/noticeboard/internal/app/system/ratelimit"
	"github.com/dalemusser/noticeboard/internal/app/system/timeouts"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgBadCredentials = "Incorrect username or password."

// Handler authenticates users and starts both a cookie session and a bearer
// token for them.
type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	SessionMgr *auth.SessionManager
	Tokens     *auth.TokenIssuer
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger

	validate *validator.Validate
}

// NewHandler constructs a login Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, tokens *auth.TokenIssuer, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		SessionMgr: sessionMgr,
		Tokens:     tokens,
		Limiter:    limiter,
		Log:        logger,
		validate:   validator.New(),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
}

// ServeLogin handles POST /auth/login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		metrics.ObserveLogin(metrics.OutcomeInvalid)
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		metrics.ObserveLogin(metrics.OutcomeInvalid)
		jsonutil.Error(w, r, h.Log, apperr.Wrap(err, apperr.ErrValidation.Code, apperr.ErrValidation.Status,
			"Username and password are required."))
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Username); !ok {
			metrics.ObserveLogin(metrics.OutcomeLimited)
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("username", req.Username))
			jsonutil.Error(w, r, h.Log, apperr.Clone(apperr.ErrRateLimited, reason))
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrInvalidCredentials) {
			metrics.ObserveLogin(metrics.OutcomeDenied)
			h.Log.Info("login failed", zap.String("username", req.Username))
			h.record(ctx, r, req.Username, "", metrics.OutcomeDenied)
			jsonutil.Error(w, r, h.Log, apperr.Clone(apperr.ErrUnauthorized, msgBadCredentials))
			return
		}
		metrics.ObserveLogin(metrics.OutcomeError)
		jsonutil.Error(w, r, h.Log, err)
		return
	}

	principal := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Name:     u.FullName,
		Role:     u.Role,
	}
	token, expiresAt, err := h.Tokens.Issue(principal)
	if err != nil {
		metrics.ObserveLogin(metrics.OutcomeError)
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	if err := h.SessionMgr.SignIn(w, r, principal); err != nil {
		metrics.ObserveLogin(metrics.OutcomeError)
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetUser(req.Username)
	}

	metrics.ObserveLogin(metrics.OutcomeOK)
	h.record(ctx, r, principal.Username, principal.ID, metrics.OutcomeOK)
	h.Log.Info("login succeeded", zap.String("user_id", principal.ID), zap.String("username", principal.Username))
	jsonutil.Write(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		Username:    principal.Username,
	})
}

// record stores the attempt in login history. Failures are logged only.
func (h *Handler) record(ctx context.Context, r *http.Request, username, userID, outcome string) {
	if h.Logins == nil {
		return
	}
	if err := h.Logins.CreateFrom(ctx, r, username, userID, outcome); err != nil {
		h.Log.Warn("login history write failed", zap.String("username", username), zap.Error(err))
	}
}
