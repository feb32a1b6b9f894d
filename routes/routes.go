package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/coffee-shop/app"
	"github.com/upb/coffee-shop/auth"
	"github.com/upb/coffee-shop/handlers"
	"github.com/upb/coffee-shop/middleware"
	"github.com/upb/coffee-shop/utils"
)

// Route binds a method and pattern to a handler.
// An empty Permission marks the route as public.
type Route struct {
	Method     string
	Pattern    string
	Permission string
	Handler    middleware.ClaimsHandlerFunc
}

// DrinkRoutes returns the drinks endpoint table
func DrinkRoutes(h *handlers.DrinkHandler) []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/drinks", Handler: h.HandleListDrinks},
		{Method: http.MethodGet, Pattern: "/drinks-detail", Permission: auth.PermissionGetDrinksDetail, Handler: h.HandleListDrinksDetail},
		{Method: http.MethodPost, Pattern: "/drinks", Permission: auth.PermissionPostDrinks, Handler: h.HandleCreateDrink},
		{Method: http.MethodPatch, Pattern: "/drinks/{id}", Permission: auth.PermissionPatchDrinks, Handler: h.HandleUpdateDrink},
		{Method: http.MethodDelete, Pattern: "/drinks/{id}", Permission: auth.PermissionDeleteDrinks, Handler: h.HandleDeleteDrink},
	}
}

// Register mounts every route, wrapping protected ones with the guard
func Register(r chi.Router, guard *middleware.Guard, table []Route) {
	for _, route := range table {
		if route.Permission == "" {
			r.Method(route.Method, route.Pattern, middleware.Public(route.Handler))
			continue
		}
		r.Method(route.Method, route.Pattern, guard.Require(route.Permission, route.Handler))
	}
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	if deps.Config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// Health check endpoints
	if deps.HealthHandler != nil {
		r.Get("/healthz", deps.HealthHandler.HandleHealth)
		r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	}

	if deps.DrinkHandler != nil {
		Register(r, deps.Guard, DrinkRoutes(deps.DrinkHandler))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}
