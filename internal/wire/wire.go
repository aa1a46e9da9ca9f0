package wire

import (
	"net/http"

	"ecoride/internal/adaptor"
	"ecoride/internal/data/entity"
	"ecoride/internal/usecase"
	"ecoride/pkg/middleware"
	"ecoride/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router *chi.Mux
}

// guards are the auth middlewares shared by every route group.
type guards struct {
	// authenticated verifies the token only
	authenticated func(http.Handler) http.Handler
	// user also provisions the local account and rejects suspended users
	user  func(http.Handler) http.Handler
	staff func(http.Handler) http.Handler
	admin func(http.Handler) http.Handler
}

// Wiring builds handlers and the router on top of the services.
func Wiring(
	service *usecase.Service,
	tokens middleware.TokenVerifier,
	hub adaptor.ConnServer,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	handler := adaptor.NewHandler(service, hub, logger)

	return &App{
		Router: setupRouter(handler, service, tokens, config, logger),
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	tokens middleware.TokenVerifier,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	g := guards{
		authenticated: middleware.Authenticate(tokens, false, logger),
		user:          middleware.Provision(service.User, logger),
		staff:         middleware.RequireRole(logger, entity.RoleEmployee, entity.RoleAdmin),
		admin:         middleware.RequireRole(logger, entity.RoleAdmin),
	}

	// Apply routes
	wireAuth(r, handler.Auth, g)
	wireUser(r, handler.User, g)
	wireTrip(r, handler.Trip, g)
	wireBooking(r, handler.Booking, g)
	wireRating(r, handler.Rating, g)
	wireNotification(r, handler.Notification, handler.WS, tokens, g, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
