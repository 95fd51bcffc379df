package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/bring-api/internal/config"
	"github.com/noah-isme/bring-api/internal/handler"
	"github.com/noah-isme/bring-api/internal/middleware"
	"github.com/noah-isme/bring-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	UserHandler           *handler.UserHandler
	FollowHandler         *handler.FollowHandler
	DreamHandler          *handler.DreamHandler
	InterpretationHandler *handler.InterpretationHandler
	ChatHandler           *handler.ChatHandler
	NotificationHandler   *handler.NotificationHandler
	AdminHandler          *handler.AdminHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	// Follow routes share the users group; /me and /search register first.
	if deps.UserHandler != nil || deps.FollowHandler != nil {
		users := api.Group("/users", jwtMiddleware)
		if deps.UserHandler != nil {
			deps.UserHandler.Register(users)
		}
		if deps.FollowHandler != nil {
			deps.FollowHandler.Register(users)
		}
	}

	if deps.DreamHandler != nil || deps.InterpretationHandler != nil {
		dreams := api.Group("/dreams", jwtMiddleware)
		if deps.InterpretationHandler != nil {
			deps.InterpretationHandler.Register(dreams)
		}
		if deps.DreamHandler != nil {
			deps.DreamHandler.Register(dreams)
		}
	}

	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(api.Group("/chats", jwtMiddleware))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin))
		deps.AdminHandler.Register(admin)
	}
}
