package authrouter

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// writeError is the single mapping layer between the error taxonomy and
// the HTTP surface: every error is terminal for its request and becomes
// a status code plus a message clients can branch on.
func writeError(c *fiber.Ctx, err error, logger Logger) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "an unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{"error": richErr.Message})
}

func (r *Router) handleRegister(c *fiber.Ctx) error {
	creds := Credentials{}
	if err := c.BodyParser(&creds); err != nil {
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "unable to parse credentials payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"field": "credentials"}), r.logger)
	}

	result, err := r.auth.Register(c.UserContext(), creds)
	if err != nil {
		return writeError(c, err, r.logger)
	}

	return c.JSON(result)
}

func (r *Router) handleAuthorize(c *fiber.Ctx) error {
	creds := Credentials{}
	if err := c.BodyParser(&creds); err != nil {
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "unable to parse credentials payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"field": "credentials"}), r.logger)
	}

	token, err := r.auth.Authorize(c.UserContext(), creds)
	if err != nil {
		return writeError(c, err, r.logger)
	}

	return c.JSON(fiber.Map{"token": token})
}

// handleAuthorizeMethod rejects every non POST verb on the authorize
// endpoint, naming the offending method.
func (r *Router) handleAuthorizeMethod(c *fiber.Ctx) error {
	msg := fmt.Sprintf("%s not allowed, use POST instead", c.Method())
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
