package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvoss/catalog/internal/config"
	"github.com/dvoss/catalog/internal/handlers"
	"github.com/dvoss/catalog/internal/middleware"
	"github.com/dvoss/catalog/internal/repo"
	"github.com/dvoss/catalog/internal/session"
	"github.com/dvoss/catalog/internal/web"
)

// newRouter wires both surfaces onto one chi router. Read routes are public;
// every mutating route passes through session.RequireAuth, which answers 401
// on the API surface and redirects to login on the web surface.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	users := repo.NewUserRepo(database)
	products := repo.NewProductRepo(database)
	sessions := session.NewManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)

	webH := &web.Handler{Users: users, Products: products, Sessions: sessions}
	apiH := &handlers.ProductHandler{Repo: products}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	r.Use(sessions.CurrentUser)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Web surface, public
	r.Get("/", webH.Index)
	r.Get("/login", webH.LoginForm)
	r.Post("/login", webH.Login)
	r.Get("/register", webH.RegisterForm)
	r.Post("/register", webH.Register)

	// Web surface, authenticated
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Get("/logout", webH.Logout)
		r.Get("/add", webH.AddForm)
		r.Post("/add", webH.Add)
		r.Get("/edit/{id}", webH.EditForm)
		r.Post("/edit/{id}", webH.Edit)
		r.Post("/delete/{id}", webH.Delete)
	})

	// API surface
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
		r.Get("/products", apiH.ListProducts)
		r.Get("/products/{id}", apiH.GetProduct)
		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth)
			r.Post("/products", apiH.CreateProduct)
			r.Put("/products/{id}", apiH.UpdateProduct)
			r.Delete("/products/{id}", apiH.DeleteProduct)
		})
	})

	return r
}
