package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dvoss/catalog/internal/auth"
	"github.com/dvoss/catalog/internal/models"
	"github.com/dvoss/catalog/internal/repo"
	"github.com/dvoss/catalog/internal/session"
)

// safeNext keeps the post-login redirect on this site. Anything that is not
// a local path falls back to home.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// ==========================
// Login
// ==========================

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", map[string]interface{}{"Username": ""})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.Users.GetByUsername(r.Context(), username)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.render(w, r, "login.html", map[string]interface{}{
			"Error":    "Invalid username or password",
			"Username": username,
		})
		return
	}

	if err := h.startSession(w, user); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
}

// ==========================
// Register
// ==========================

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "register.html", map[string]interface{}{"Username": ""})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(msg string) {
		h.render(w, r, "register.html", map[string]interface{}{
			"Error":    msg,
			"Username": username,
		})
	}

	if username == "" || password == "" {
		fail("Username and password are required")
		return
	}
	if len(username) > models.MaxUsernameLen {
		fail("Username is too long")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), username, hash)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			fail("Username already exists")
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// New accounts are signed in right away.
	if err := h.startSession(w, user); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Logout
// ==========================

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) startSession(w http.ResponseWriter, user *models.User) error {
	token, err := h.Sessions.Issue(user)
	if err != nil {
		return err
	}
	h.Sessions.SetCookie(w, token)
	return nil
}
