package server

import (
	"context"
	"log"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"backend-videosync/internal/auth"
	"backend-videosync/internal/config"
	"backend-videosync/internal/jobs"
	"backend-videosync/internal/overlay"
	"backend-videosync/internal/processor"
	"backend-videosync/internal/session"
	"backend-videosync/internal/storage"
	"backend-videosync/internal/stream"
	"backend-videosync/internal/upload"
)

// bodyLimit admits one maximal video plus form overhead.
const bodyLimit = int(upload.MaxVideoSize + 8<<20)

const sweepInterval = time.Minute

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Sessions *session.Manager
	Jobs     *jobs.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder:       json.Marshal,
		JSONDecoder:       json.Unmarshal,
		BodyLimit:         bodyLimit,
		StreamRequestBody: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	deps := session.Deps{
		Processor:     processor.NewClient(cfg.ProcessorURL, &http.Client{Timeout: cfg.ProcessorTimeout}),
		Publisher:     s.Stream,
		Prefs:         overlay.NewPrefStore(redisClient),
		DefaultLang:   cfg.DefaultLang,
		Interpolation: cfg.InterpolationLevel,
		TTL:           cfg.SessionTTL,
	}
	if db != nil {
		s.Jobs = jobs.NewService(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.Jobs.EnsureSchema(ctx); err != nil {
			log.Printf("render_jobs schema: %v", err)
		}
		cancel()
		deps.Jobs = s.Jobs
	}
	store, err := storage.NewService(cfg.UploadDir)
	if err != nil {
		log.Printf("upload dir %q unusable, falling back to temp dir: %v", cfg.UploadDir, err)
		store, err = storage.NewService("")
		if err != nil {
			log.Fatalf("no usable upload dir: %v", err)
		}
	}
	deps.Storage = store
	s.Sessions = session.NewManager(deps)

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"sessions": s.Sessions.Len(),
			"jobs":     s.Jobs != nil,
		})
	})

	tokens := auth.NewService(s.Cfg.JWTSecret, s.Cfg.SessionTTL)

	auth.RegisterRoutes(s.App.Group("/auth"), tokens, s.Sessions.Alive)
	session.RegisterRoutes(s.App.Group("/sessions"), s.Sessions, tokens, auth.SessionMiddleware(s.Cfg.JWTSecret, "id"))
	if s.Jobs != nil {
		jobs.RegisterRoutes(s.App, s.Jobs, auth.SessionMiddleware(s.Cfg.JWTSecret, ""))
	}
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, auth.SessionMiddleware(s.Cfg.JWTSecret, "sessionID"))
}

// Start runs background maintenance until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.Sessions.Run(ctx, sweepInterval)
}

// Close ends every session and the event stream.
func (s *Server) Close() {
	s.Sessions.Close()
	if err := s.Stream.Close(); err != nil {
		log.Printf("stream close: %v", err)
	}
}
