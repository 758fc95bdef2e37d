package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/observability"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// RegisterMiddlewares attaches the timeout, request logging and error
// rendering middlewares, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware recovers panics and renders DomainErrors. Errors on
// the GraphQL endpoint use the GraphQL response shape so clients parse a
// single format.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("path", c.Path()),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(domainErr))
			}

			c.Status(domainErr.HTTPStatus)
			if c.Path() == GraphQLPath {
				err = c.JSON(graphQLErrorBody(domainErr))
			} else {
				err = c.JSON(restErrorBody(domainErr))
			}
		}()
		return c.Next()
	}
}

func restErrorBody(e *apperrors.DomainError) fiber.Map {
	body := fiber.Map{
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return fiber.Map{"error": body}
}

func graphQLErrorBody(e *apperrors.DomainError) fiber.Map {
	return fiber.Map{
		"data": nil,
		"errors": []fiber.Map{{
			"message":    e.Message,
			"extensions": e.Extensions(),
		}},
	}
}
