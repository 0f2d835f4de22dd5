package http

import (
	"log/slog"

	"github.com/geocoder89/pethub/internal/blob"
	"github.com/geocoder89/pethub/internal/config"
	"github.com/geocoder89/pethub/internal/http/handlers"
	"github.com/geocoder89/pethub/internal/http/middlewares"
	"github.com/geocoder89/pethub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the process-scoped singletons built once in cmd/api.
type Deps struct {
	Users     handlers.UserStore
	Pets      handlers.PetStore
	Tokens    handlers.TokenIssuer
	Blobs     blob.Store
	Uploads   blob.Opener // set only for backends that serve their own objects
	ListCache handlers.ListCache

	Prom     *observability.Prom
	Registry *prometheus.Registry
	Ready    map[string]handlers.Pinger

	// ShuttingDown flips readiness to 503 while the server drains.
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.Ready).WithShutdownFlag(deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// docs
	r.GET("/", handlers.Landing)
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// auth
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, cfg, log)
	jsonOnly := middlewares.RequireJSON()
	r.POST("/signup", jsonOnly, authHandler.SignUp)
	r.POST("/login", jsonOnly, authHandler.Login)

	// pets
	blobs := deps.Blobs
	if deps.Prom != nil {
		blobs = blob.Observed(blobs, deps.Prom.ObserveBlob)
	}

	petsHandler := handlers.NewPetsHandler(deps.Pets, blobs, deps.ListCache, cfg, log)
	if deps.Prom != nil {
		petsHandler.WithMetrics(deps.Prom)
	}

	uploadLimit := middlewares.MaxBodyBytes(cfg.MaxUploadBytes)
	r.POST("/add-pet", uploadLimit, petsHandler.AddPet)
	r.GET("/pets", petsHandler.ListPets)
	r.PUT("/pets/:id", uploadLimit, petsHandler.UpdatePet)

	if deps.Uploads != nil {
		uploads := handlers.NewUploadsHandler(deps.Uploads, cfg.DownstreamTimeout, log)
		r.GET("/uploads/*key", uploads.Serve)
	}

	return r
}
