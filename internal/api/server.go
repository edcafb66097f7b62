// Package api assembles the HTTP server: global middleware, the filter
// chain under the API prefix and the named, ability-guarded routes.
package api

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/api/handlers"
	"github.com/maheshrc27/mixpost-api/internal/api/middleware"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Tokens   service.TokenService
	Posts    service.PostService
	Media    service.MediaService
	Accounts service.AccountService
	Tags     service.TagService
}

type Server struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	services Services
}

func NewServer(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics, gatherer prometheus.Gatherer, services Services) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		gatherer: gatherer,
		services: services,
	}
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	// Leave room for multipart overhead on top of the largest upload.
	app := fiber.New(fiber.Config{
		AppName:      "mixpost-api",
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    int(s.cfg.Media.MaxFileSizeKB*1024) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler(s.log),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(s.log))
	app.Use(middleware.Metrics(s.metrics))
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	if s.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	if path := mountPath(s.cfg.Media.PublicURL); path != "" {
		app.Static(path, s.cfg.Media.LocalRoot)
	}

	api := app.Group("/"+s.cfg.APIPrefix,
		middleware.RequireHTTPS(s.cfg.Security, s.cfg.AppEnv),
		middleware.IPWhitelist(s.cfg.Security),
		middleware.RateLimit(s.cfg.RateLimit),
	)

	s.routes(api)
	return app
}

type router struct {
	fiber.Router
	auth *middleware.AuthMiddleware
}

// handle registers an authenticated route whose name doubles as the
// token ability it requires.
func (r router) handle(method, path, name string, h fiber.Handler) {
	r.Add(method, path, middleware.Route(name), r.auth.Authenticate(), r.auth.Ability(name), h)
}

func (s *Server) routes(api fiber.Router) {
	auth := middleware.NewAuthMiddleware(s.services.Tokens, s.cfg.Token.AbilitiesEnabled, s.metrics)
	r := router{Router: api, auth: auth}

	tokens := handlers.NewTokenHandler(s.services.Tokens)
	api.Post("/auth/tokens", middleware.Route("auth.tokens.create"), tokens.Create)
	r.handle(fiber.MethodGet, "/auth/tokens", "auth.tokens.index", tokens.List)
	r.handle(fiber.MethodDelete, "/auth/tokens/current", "auth.tokens.current.destroy", tokens.DestroyCurrent)
	r.handle(fiber.MethodDelete, "/auth/tokens/:id", "auth.tokens.destroy", tokens.Destroy)

	health := handlers.NewHealthHandler(s.cfg.AppVersion)
	r.handle(fiber.MethodGet, "/health", "health", health.Check)

	posts := handlers.NewPostHandler(s.services.Posts, s.cfg.Pagination)
	r.handle(fiber.MethodGet, "/posts", "posts.index", posts.List)
	r.handle(fiber.MethodPost, "/posts", "posts.store", posts.Store)
	r.handle(fiber.MethodDelete, "/posts", "posts.bulk-destroy", posts.BulkDestroy)
	r.handle(fiber.MethodGet, "/posts/:post", "posts.show", posts.Show)
	r.handle(fiber.MethodPut, "/posts/:post", "posts.update", posts.Update)
	r.handle(fiber.MethodPatch, "/posts/:post", "posts.update", posts.Update)
	r.handle(fiber.MethodDelete, "/posts/:post", "posts.destroy", posts.Destroy)
	r.handle(fiber.MethodPost, "/posts/:post/schedule", "posts.schedule", posts.Schedule)
	r.handle(fiber.MethodPost, "/posts/:post/publish", "posts.publish", posts.Publish)
	r.handle(fiber.MethodPost, "/posts/:post/duplicate", "posts.duplicate", posts.Duplicate)

	media := handlers.NewMediaHandler(s.services.Media, s.cfg.Pagination)
	r.handle(fiber.MethodGet, "/media", "media.index", media.List)
	r.handle(fiber.MethodPost, "/media", "media.store", media.Store)
	r.handle(fiber.MethodPost, "/media/download", "media.download", media.Download)
	r.handle(fiber.MethodDelete, "/media", "media.bulk-destroy", media.BulkDestroy)
	r.handle(fiber.MethodGet, "/media/:media", "media.show", media.Show)
	r.handle(fiber.MethodDelete, "/media/:media", "media.destroy", media.Destroy)

	accounts := handlers.NewAccountHandler(s.services.Accounts)
	r.handle(fiber.MethodGet, "/accounts", "accounts.index", accounts.List)
	r.handle(fiber.MethodGet, "/accounts/:account", "accounts.show", accounts.Show)
	r.handle(fiber.MethodPut, "/accounts/:account", "accounts.update", accounts.Update)
	r.handle(fiber.MethodPatch, "/accounts/:account", "accounts.update", accounts.Update)
	r.handle(fiber.MethodDelete, "/accounts/:account", "accounts.destroy", accounts.Destroy)

	tags := handlers.NewTagHandler(s.services.Tags)
	r.handle(fiber.MethodGet, "/tags", "tags.index", tags.List)
	r.handle(fiber.MethodPost, "/tags", "tags.store", tags.Store)
	r.handle(fiber.MethodPut, "/tags/:tag", "tags.update", tags.Update)
	r.handle(fiber.MethodPatch, "/tags/:tag", "tags.update", tags.Update)
	r.handle(fiber.MethodDelete, "/tags/:tag", "tags.destroy", tags.Destroy)
}

// mountPath is the path component of the local disk's public URL.
func mountPath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return u.Path
}
