package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/auth"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/backend"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/config"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/db"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/position"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/registry"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/route"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/stream"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/tracking"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Logger   *slog.Logger
	Backend  *backend.Client
	Feed     *position.Feed
	Registry *registry.Registry
	Tracking *tracking.Manager
	Journal  *journal.Service
	Scenes   *route.Set
	Identity auth.Identity
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) *Server {
	log = logging.OrDefault(log)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Logger: log,
		Backend: backend.NewClient(backend.Options{
			BaseURL: cfg.APIBaseURL,
			Token:   cfg.APIToken,
			Timeout: cfg.APITimeout,
		}),
		Feed: position.NewFeed(position.FeedOptions{
			Supported:          cfg.LocationSupported,
			FixTimeout:         cfg.FixTimeout,
			MaxAge:             cfg.FixMaxAge,
			HighAccuracyMeters: cfg.HighAccuracyMeters,
		}),
		Scenes: route.NewSet(),
	}

	id, err := auth.IdentityFromToken(cfg.APIToken)
	if err != nil {
		log.Warn("no walker identity, tracking disabled", "error", err)
	}
	s.Identity = id

	var q db.Querier
	if pool != nil {
		q = pool
	}
	s.Journal = journal.NewService(q)

	s.Registry = registry.New(s.Backend, registry.Options{
		PollInterval: cfg.PollInterval,
		Logger:       log,
		Listener:     s.publishScene,
	})

	var source position.Source = s.Feed
	if !cfg.LocationSupported {
		source = position.Unsupported{}
	}
	opts := tracking.Options{
		UploadInterval:  cfg.UploadInterval,
		FinalFixTimeout: cfg.FinalFixTimeout,
		Logger:          log,
		CanTrack:        s.Identity.IsWalker,
	}
	if s.Journal.Enabled() {
		opts.Journal = s.Journal
	}
	s.Tracking = tracking.NewManager(s.Backend, source, s.Registry, opts)

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"tracking": s.Tracking.Status().State,
			"journal":  s.Journal.Enabled(),
			"location": s.Cfg.LocationSupported,
		})
	})

	s.App.Get("/appointments", func(c *fiber.Ctx) error {
		var (
			appts []walk.Appointment
			err   error
		)
		if date := c.Query("date"); date != "" {
			day, perr := time.Parse(time.DateOnly, date)
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			appts, err = s.Backend.AppointmentsOn(c.UserContext(), day)
		} else {
			appts, err = s.Backend.Appointments(c.UserContext())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(appts)
	})

	registry.RegisterRoutes(s.App.Group("/walks"), s.Registry, s.Scenes)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, s.Journal)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
	if s.Cfg.LocationSupported {
		position.RegisterRoutes(s.App.Group("/device"), s.Feed, s.Logger)
	}
}

// publishScene renders a changed live detail and pushes it to viewers.
func (s *Server) publishScene(d walk.Detail) {
	scene := s.Scenes.For(d.ID).Update(route.InputFromDetail(d, d.IsTracking))
	payload, err := json.Marshal(scene.GeoJSON())
	if err != nil {
		s.Logger.Warn("encode scene", "walk_id", d.ID, "error", err)
		return
	}
	s.Stream.Broadcast(d.ID, payload)
}

// Close releases the live tracking session and the stream relay.
func (s *Server) Close() {
	s.Tracking.Close()
	s.Stream.Close()
}
