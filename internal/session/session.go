// Package session issues and resolves the signed session identity carried in
// a cookie. Identity is resolved once per request from the signed claims and
// threaded through the request context; there is no process-global session
// state.
package session

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dvoss/catalog/internal/models"
)

// CookieName is the session cookie shared by the web and API surfaces.
const CookieName = "catalog_session"

// Identity is the authenticated principal bound to a request. Absence of an
// Identity in the context is Anonymous, which is not an error state.
type Identity struct {
	UserID   int
	Username string
}

type ctxKey struct{}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed session token for the principal.
func (m *Manager) Issue(p models.Principal) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.Itoa(p.PrincipalID()),
		"username": p.PrincipalName(),
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// parse verifies the token and extracts the identity. Any failure (bad
// signature, expiry, malformed subject) yields nil: the caller treats the
// request as anonymous rather than erroring.
func (m *Manager) parse(tokenStr string) *Identity {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.Atoi(sub)
	if err != nil {
		return nil
	}
	username, _ := claims["username"].(string)
	return &Identity{UserID: id, Username: username}
}

// SetCookie binds the session token to the browser.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie ends the session on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
}

// CurrentUser resolves the identity from the session cookie, or from a
// Bearer Authorization header carrying the same token (used by the CLI), and
// stores it in the request context. Missing or invalid sessions pass through
// as anonymous.
func (m *Manager) CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenStr string
		if c, err := r.Cookie(CookieName); err == nil {
			tokenStr = c.Value
		} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		}
		if tokenStr != "" {
			if ident := m.parse(tokenStr); ident != nil {
				ctx := context.WithValue(r.Context(), ctxKey{}, ident)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth gates mutating routes. Anonymous requests to the API surface
// get a structured 401; anonymous web requests are redirected to the login
// page with a next hint back to the original URL. Run after CurrentUser.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		RedirectToLogin(w, r)
	})
}

// RedirectToLogin sends the browser to the login page with next=current URL
// so the user lands back where they started after authenticating.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusFound)
}

// FromContext returns the identity resolved by CurrentUser, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(ctxKey{}).(*Identity)
	return ident, ok
}
