package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eats-backend/internal/api/gql"
	"github.com/spec-kit/eats-backend/internal/api/http/handlers"
	"github.com/spec-kit/eats-backend/internal/auth"
)

// GraphQLPath serves every account operation.
const GraphQLPath = "/graphql"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	GraphQL        *gql.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post(GraphQLPath, cfg.AuthMiddleware.Handle, cfg.GraphQL.Serve)
}
