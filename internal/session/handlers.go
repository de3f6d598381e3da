package session

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"backend-videosync/internal/auth"
	"backend-videosync/internal/generate"
	"backend-videosync/internal/i18n"
	"backend-videosync/internal/jobs"
	"backend-videosync/internal/overlay"
	"backend-videosync/internal/processor"
	"backend-videosync/internal/storage"
	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/upload"
)

type createRequest struct {
	ClientID string `json:"client_id"`
	Lang     string `json:"lang"`
}

type settingsRequest struct {
	Lang               *string `json:"lang"`
	InterpolationLevel *int    `json:"interpolation_level"`
}

type syncPointRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// RegisterRoutes mounts the session API. authMiddleware must check that the
// bearer token belongs to the :id session.
func RegisterRoutes(r fiber.Router, m *Manager, tokens *auth.Service, authMiddleware fiber.Handler) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req createRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		if req.Lang == "" && c.Get(fiber.HeaderAcceptLanguage) != "" {
			req.Lang = i18n.Match(c.Get(fiber.HeaderAcceptLanguage))
		}

		s := m.Create(c.UserContext(), req.ClientID, req.Lang)
		token, err := tokens.IssueSessionToken(s.ID)
		if err != nil {
			_ = m.Delete(s.ID)
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"session_id": s.ID,
			"token":      token,
			"state":      s.State(),
		})
	})

	r.Get("/:id", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.State())
	}))

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := m.Delete(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Put("/:id/settings", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.InterpolationLevel != nil {
			if err := s.Uploads.SetInterpolationLevel(*req.InterpolationLevel); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if req.Lang != nil {
			s.Localizer.SetLang(*req.Lang)
		}
		return c.JSON(s.State())
	}))

	r.Post("/:id/track", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		f, err := storage.Receive(c, m.deps.Storage, s.ID)
		if err != nil {
			return err
		}
		if err := s.Uploads.AssignTrack(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, uploadMessage(s, err))
		}
		return c.JSON(s.State())
	}))

	r.Delete("/:id/track", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		s.Uploads.ClearTrack()
		return c.JSON(s.State())
	}))

	r.Post("/:id/video", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		f, err := storage.Receive(c, m.deps.Storage, s.ID)
		if err != nil {
			return err
		}
		if err := s.Uploads.AssignVideo(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, uploadMessage(s, err))
		}
		return c.JSON(s.State())
	}))

	r.Delete("/:id/video", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		s.Uploads.ClearVideo()
		return c.JSON(s.State())
	}))

	r.Post("/:id/suggestion", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		err := s.Uploads.FetchSuggestion(c.UserContext())
		var se *processor.ServerError
		switch {
		case err == nil, errors.Is(err, upload.ErrSuggestionIgnored):
			return c.JSON(s.State())
		case errors.Is(err, upload.ErrMissingFiles):
			return fiber.NewError(fiber.StatusConflict, s.Localizer.T("error_missing_files", nil))
		case errors.Is(err, upload.ErrStaleSuggestion), errors.Is(err, context.Canceled):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.As(err, &se):
			return fiber.NewError(fiber.StatusBadGateway, se.Message)
		case errors.Is(err, processor.ErrUnreachable):
			return fiber.NewError(fiber.StatusBadGateway, s.Localizer.T("suggestion_comm_error", nil))
		case errors.Is(err, syncpoint.ErrInvalidCoordinates):
			return fiber.NewError(fiber.StatusUnprocessableEntity, s.Localizer.T("suggestion_invalid", nil))
		default:
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
	}))

	r.Post("/:id/sync-point", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		var req syncPointRequest
		if err := c.BodyParser(&req); err != nil || req.Lat == nil || req.Lon == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon required")
		}
		p, desc, err := s.Uploads.SelectAt(*req.Lat, *req.Lon)
		switch {
		case errors.Is(err, upload.ErrNoTrack):
			return fiber.NewError(fiber.StatusConflict, s.Localizer.T("no_track_loaded", nil))
		case err != nil:
			return fiber.NewError(fiber.StatusBadRequest, s.Localizer.T("sync_point_invalid", nil))
		}
		return c.JSON(fiber.Map{"sync_point": p, "description": desc})
	}))

	r.Get("/:id/map.kml", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		var buf bytes.Buffer
		if err := s.Map.WriteKML(&buf, "videosync "+s.ID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/vnd.google-earth.kml+xml")
		return c.Send(buf.Bytes())
	}))

	r.Get("/:id/map", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		raw, err := s.Map.MarshalJSON()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(raw)
	}))

	r.Get("/:id/overlays", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Overlays.Configuration())
	}))

	r.Put("/:id/overlays", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		var cfg overlay.Configuration
		if err := c.BodyParser(&cfg); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		s.Overlays.Apply(cfg)
		m.SavePrefs(c.UserContext(), s)
		return c.JSON(s.Overlays.Configuration())
	}))

	r.Post("/:id/overlays/:kind/toggle", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		kind, err := overlay.ParseKind(c.Params("kind"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		corner, active := s.Overlays.Toggle(kind)
		m.SavePrefs(c.UserContext(), s)
		resp := fiber.Map{"kind": kind, "active": active, "overlays": s.Overlays.Configuration()}
		if active {
			resp["position"] = corner
		}
		return c.JSON(resp)
	}))

	r.Post("/:id/generate", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		if c.QueryBool("wait") {
			res, err := s.Generator.Generate(c.UserContext())
			if err != nil && (res.JobID == "" || errors.Is(err, generate.ErrCancelled)) {
				return generateError(s, err)
			}
			if res.Status != jobs.StatusSucceeded {
				return c.Status(fiber.StatusBadGateway).JSON(res)
			}
			return c.JSON(res)
		}
		jobID, err := s.Generator.Start(c.UserContext())
		if err != nil {
			return generateError(s, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
	}))

	r.Post("/:id/generate/cancel", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		if err := s.Generator.Cancel(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(s.Generator.State())
	}))

	r.Get("/:id/notifications", authMiddleware, withSession(m, func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Notifications.List())
	}))
}

func withSession(m *Manager, h func(c *fiber.Ctx, s *Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return h(c, s)
	}
}

func generateError(s *Session, err error) error {
	msg := s.Localizer.T(generate.MessageKey(err), nil)
	if errors.Is(err, generate.ErrAlreadyRunning) || errors.Is(err, generate.ErrCancelled) {
		return fiber.NewError(fiber.StatusConflict, msg)
	}
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func uploadMessage(s *Session, err error) string {
	switch {
	case errors.Is(err, upload.ErrTrackType):
		return s.Localizer.T("track_type_unsupported", map[string]string{"allowed": strings.Join(upload.TrackExtensions, ", ")})
	case errors.Is(err, upload.ErrTrackSize):
		return s.Localizer.T("track_too_large", nil)
	case errors.Is(err, upload.ErrVideoType):
		return s.Localizer.T("video_type_unsupported", nil)
	case errors.Is(err, upload.ErrVideoSize):
		return s.Localizer.T("video_too_large", nil)
	}
	return err.Error()
}
