// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"

	announcementsfeature "github.com/dalemusser/noticeboard/internal/app/features/announcements"
	healthfeature "github.com/dalemusser/noticeboard/internal/app/features/health"
	loginfeature "github.com/dalemusser/noticeboard/internal/app/features/login"
	logoutfeature "github.com/dalemusser/noticeboard/internal/app/features/logout"
	userinfofeature "github.com/dalemusser/noticeboard/internal/app/features/userinfo"
	announcementstore "github.com/dalemusser/noticeboard/internal/app/store/announcements"
	loginstore "github.com/dalemusser/noticeboard/internal/app/store/logins"
	userstore "github.com/dalemusser/noticeboard/internal/app/store/users"
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/dalemusser/noticeboard/internal/app/system/metrics"
	"github.com/dalemusser/noticeboard/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	limiterMu    sync.Mutex
	loginLimiter *ratelimit.LoginLimiter
)

func stopLoginLimiter() {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	if loginLimiter != nil {
		loginLimiter.Stop()
		loginLimiter = nil
	}
}

// BuildHandler constructs the root router.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The session manager resolves the principal for
// every request (bearer token first, then session cookie); features that
// mutate state put their routes behind RequireSignedIn.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokenIssuer(tokens)

	// Re-read the user on every request so disabled accounts lose access
	// immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	stopLoginLimiter()
	limiterMu.Lock()
	loginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginIPLimit, appCfg.LoginUserLimit)
	limiter := loginLimiter
	limiterMu.Unlock()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, tokens, limiter, logger)
	r.Mount("/auth/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

	meHandler := userinfofeature.NewHandler(loginstore.New(deps.MongoDatabase), logger)
	r.Mount("/auth/me", userinfofeature.Routes(meHandler, sessionMgr))

	// Announcements
	annHandler := announcementsfeature.NewHandler(announcementstore.New(deps.MongoDatabase), logger)
	r.Mount("/announcements", announcementsfeature.Routes(annHandler, sessionMgr))

	return r, nil
}
