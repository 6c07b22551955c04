package server

import (
	"heartbridge/internal/middleware"
	"heartbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

// listQuery holds the cursor pagination query parameters.
type listQuery struct {
	After string
	Limit int
}

// parseListQuery extracts ?after= and ?limit=. The services clamp the limit.
func parseListQuery(c *fiber.Ctx, defaultLimit int) listQuery {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	return listQuery{After: c.Query("after"), Limit: limit}
}

// parseBody decodes the JSON body into dest. On failure it writes a 400
// response; callers return the error it yields.
func parseBody(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return true, nil
}

// respond writes err using the status derived from its code.
func respond(c *fiber.Ctx, err error) error {
	if models.HTTPStatus(err) == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(),
			"error", err,
		)
	}
	return models.RespondWithAppError(c, err)
}

func currentUser(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
