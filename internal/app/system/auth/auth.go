package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/jsonutil"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	usernameKey  = "username"
	userNameKey  = "user_name"
	userRoleKey  = "user_role"
	bearerPrefix = "bearer "
)

/*─────────────────────────────────────────────────────────────────────────────*
| Principal                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated principal injected into r.Context().
type SessionUser struct {
	ID       string
	Username string
	Name     string
	Role     string
}

// UserFetcher loads the current state of a user on each request so disabled
// accounts and role changes take effect immediately. FetchUser returns nil
// when the user no longer exists or may not sign in.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context, bypassing sessions and
// tokens. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager resolves the caller from either a bearer token or the
// session cookie, and guards routes that need a principal.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	tokens  *TokenIssuer
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure + SameSite=None; over http://localhost use secure=false.
// An empty key generates a random one, which invalidates sessions on restart.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if name == "" {
		return nil, fmt.Errorf("session name is empty")
	}
	key := []byte(sessionKey)
	if sessionKey == "" {
		logger.Warn("session key is empty; generating an ephemeral key")
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("could not generate session key")
		}
	} else if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetTokenIssuer enables bearer-token authentication.
func (sm *SessionManager) SetTokenIssuer(ti *TokenIssuer) { sm.tokens = ti }

// SetUserFetcher enables per-request user refresh.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Store exposes the cookie store (for logout cookie options).
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the named session. On a decode failure (rotated key,
// tampered cookie) it still returns a usable fresh session with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn records u in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, err := sm.GetSession(r)
	if err != nil && !isDecodeErr(err) {
		return err
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[usernameKey] = u.Username
	sess.Values[userNameKey] = u.Name
	sess.Values[userRoleKey] = u.Role
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil && !isDecodeErr(err) {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	if opts := sm.store.Options; opts != nil {
		o := *opts
		sess.Options = &o
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the principal into the context when the request
// carries a valid bearer token or an authenticated session. A present but
// invalid bearer token leaves the request anonymous; the session cookie is
// not consulted in that case.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := sm.resolve(r); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a principal with 401 before the
// wrapped handler runs.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		jsonutil.Error(w, r, sm.log, apperr.ErrUnauthorized)
	})
}

func (sm *SessionManager) resolve(r *http.Request) *SessionUser {
	if header := r.Header.Get("Authorization"); header != "" {
		if sm.tokens == nil || len(header) <= len(bearerPrefix) ||
			!strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return nil
		}
		u, err := sm.tokens.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			sm.log.Debug("bearer token rejected", zap.Error(err))
			return nil
		}
		return sm.refresh(r.Context(), u)
	}

	sess, err := sm.GetSession(r)
	if err != nil {
		if isDecodeErr(err) {
			sm.log.Debug("session cookie could not be decoded", zap.Error(err))
		} else {
			sm.log.Warn("session load failed", zap.Error(err))
		}
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	return sm.refresh(r.Context(), &SessionUser{
		ID:       getString(sess, userIDKey),
		Username: getString(sess, usernameKey),
		Name:     getString(sess, userNameKey),
		Role:     getString(sess, userRoleKey),
	})
}

func (sm *SessionManager) refresh(ctx context.Context, u *SessionUser) *SessionUser {
	if sm.fetcher == nil {
		return u
	}
	return sm.fetcher.FetchUser(ctx, u.ID)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func isDecodeErr(err error) bool {
	var scErr securecookie.Error
	if errors.As(err, &scErr) {
		return scErr.IsDecode()
	}
	return false
}
