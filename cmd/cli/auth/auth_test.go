package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvoss/catalog/cmd/cli/config"
	"github.com/dvoss/catalog/internal/session"
)

func TestLogin_SavesToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("username") != "alice" || r.FormValue("password") != "s3cret" {
			t.Fatalf("unexpected credentials: %v", r.Form)
		}
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "tok-abc", Path: "/"})
		http.Redirect(w, r, "/", http.StatusFound)
	}))
	defer srv.Close()

	t.Setenv("CATALOG_API_URL", srv.URL)

	cmd := loginCmd()
	_ = cmd.Flags().Set("username", "alice")
	_ = cmd.Flags().Set("password", "s3cret")

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := config.ReadToken()
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("token: got %q, want tok-abc", token)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// A failed login re-renders the form with 200 and no cookie.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Invalid username or password</html>"))
	}))
	defer srv.Close()

	t.Setenv("CATALOG_API_URL", srv.URL)

	cmd := loginCmd()
	_ = cmd.Flags().Set("username", "alice")
	_ = cmd.Flags().Set("password", "wrong")

	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected login to fail without a session cookie")
	}
	if _, err := config.ReadToken(); err == nil {
		t.Error("no token should be stored after a failed login")
	}
}

func TestLogin_RegisterFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "tok-new", Path: "/"})
		http.Redirect(w, r, "/", http.StatusFound)
	}))
	defer srv.Close()

	t.Setenv("CATALOG_API_URL", srv.URL)

	cmd := loginCmd()
	_ = cmd.Flags().Set("username", "bob")
	_ = cmd.Flags().Set("password", "s3cret")
	_ = cmd.Flags().Set("register", "true")

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("login --register: %v", err)
	}
	token, err := config.ReadToken()
	if err != nil || token != "tok-new" {
		t.Errorf("token: got %q, %v", token, err)
	}
}

func TestLogout_ClearsToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("tok-abc"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	cmd := logoutCmd()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := config.ReadToken(); err == nil {
		t.Error("token should be gone after logout")
	}

	// Logging out twice is fine.
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Errorf("second logout: %v", err)
	}
}
