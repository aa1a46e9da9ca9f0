package wire

import (
	"ecoride/internal/adaptor"
	"ecoride/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireNotification(
	r chi.Router,
	notificationHandler *adaptor.NotificationHandler,
	wsHandler *adaptor.WSHandler,
	tokens middleware.TokenVerifier,
	g guards,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(g.authenticated, g.user)

		r.Get("/", notificationHandler.List)
		r.Put("/read-all", notificationHandler.MarkAllRead)
		r.Put("/{id}/read", notificationHandler.MarkRead)
	})

	// Browsers cannot set headers on a WebSocket handshake
	r.With(middleware.Authenticate(tokens, true, log), g.user).Get("/ws", wsHandler.Connect)
}
