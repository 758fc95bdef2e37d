package gql

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes GraphQL requests against the account schema.
type Handler struct {
	schema graphql.Schema
	logger *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(schema graphql.Schema, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{schema: schema, logger: logger}
}

// Serve runs the operation with the request context, which carries the
// current user resolved by the auth middleware.
func (h *Handler) Serve(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid GraphQL request body", nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return apperrors.NewValidationError("query is required", nil)
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.UserContext(),
	})
	if result.HasErrors() {
		h.logger.Debug("graphql errors",
			zap.String("operation", req.OperationName),
			zap.Int("count", len(result.Errors)),
			zap.String("first", result.Errors[0].Message))
	}
	return c.JSON(result)
}
