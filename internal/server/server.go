package server

import (
	"strconv"

	"backend-walkpath/internal/config"
	"backend-walkpath/internal/events"
	"backend-walkpath/internal/path"
	"backend-walkpath/internal/storage"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Publisher events.Publisher
	Logger    *zap.Logger
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, publisher events.Publisher, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024, // room for a 10MB snapshot upload
	})
	app.Use(recover.New())
	app.Use(logger.New())

	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        db,
		Redis:     redisClient,
		Publisher: publisher,
		Logger:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.App.Static("/uploads/paths", s.Cfg.UploadDir)

	userMiddleware := identifyUser(s.Cfg.DefaultUserNo)

	pathSvc := path.NewService(s.DB, s.Redis, s.Publisher, s.Logger)
	imageStore := storage.NewService(s.DB, s.Cfg.UploadDir)
	path.RegisterRoutes(s.App.Group("/paths", userMiddleware), pathSvc, imageStore)
}

// identifyUser resolves the acting user: an X-User-No header when present,
// else the configured placeholder account.
func identifyUser(defaultUserNo int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userNo := defaultUserNo
		if header := c.Get("X-User-No"); header != "" {
			if parsed, err := strconv.ParseInt(header, 10, 64); err == nil && parsed > 0 {
				userNo = parsed
			}
		}
		c.Locals("user_no", userNo)
		return c.Next()
	}
}
