// Package web serves the HTML surface: rendered pages, form handling, and
// the login/register/logout flow. It shares the repositories and session
// manager with the JSON API so both surfaces observe the same records and
// the same authorization policy.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dvoss/catalog/internal/repo"
	"github.com/dvoss/catalog/internal/session"
)

//go:embed templates
var templatesFS embed.FS

// Handler binds the web routes to the shared repositories and session manager.
type Handler struct {
	Users    *repo.UserRepo
	Products *repo.ProductRepo
	Sessions *session.Manager
}

// render executes the named page inside the layout. The current identity, if
// any, is injected as .User so the nav can show who is signed in.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if ident, ok := session.FromContext(r.Context()); ok {
		data["User"] = ident
	}

	layout, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	t := template.Must(template.New("").Parse(string(layout)))
	t = template.Must(t.Parse(string(content)))
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("template execute", "template", name, "err", err)
	}
}
