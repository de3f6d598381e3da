package jobs

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/jobs/:id", authMiddleware, func(c *fiber.Ctx) error {
		job, err := svc.Get(c.UserContext(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if sessionID, ok := c.Locals("session_id").(string); ok && sessionID != job.SessionID {
			return fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
		}
		return c.JSON(job)
	})

	r.Get("/sessions/:id/jobs", authMiddleware, func(c *fiber.Ctx) error {
		if sessionID, ok := c.Locals("session_id").(string); ok && sessionID != c.Params("id") {
			return fiber.NewError(fiber.StatusForbidden, "session mismatch")
		}
		jobs, err := svc.ListBySession(c.UserContext(), c.Params("id"), c.QueryInt("limit", 20))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if jobs == nil {
			jobs = []Job{}
		}
		return c.JSON(jobs)
	})
}
