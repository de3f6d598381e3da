package storage

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-videosync/internal/upload"
)

// Receive stores the multipart field "file" of the current request.
func Receive(c *fiber.Ctx, svc *Service, sessionID string) (upload.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return upload.File{}, fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" required")
	}
	f, err := svc.SaveMultipart(sessionID, fh)
	if errors.Is(err, ErrEmptyUpload) {
		return upload.File{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return upload.File{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return f, nil
}
