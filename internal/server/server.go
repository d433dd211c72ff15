// Package server wires the HTTP API: the chat endpoint backed by the
// retrieval core, operational endpoints, and Prometheus metrics.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sohae-kim/portfolio-chat/config"
	"github.com/sohae-kim/portfolio-chat/internal/provider"
	"github.com/sohae-kim/portfolio-chat/internal/store"
)

// Deps are the collaborators the HTTP layer is built from. Tests inject
// fakes here; Run assembles the real ones.
type Deps struct {
	Cfg       *config.Config
	Store     *store.Store
	Embedder  provider.Embedder
	Generator provider.Generator
	Limiter   Limiter
	Logger    *log.Logger
	SecLogger *log.Logger
}

// New builds the echo instance with middleware and routes registered.
func New(deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	if deps.SecLogger == nil {
		deps.SecLogger = log.New(log.Writer(), "[SEC] ", log.LstdFlags)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10K"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: deps.Cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	logger := deps.Logger
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	ch := &ChatHandler{
		Cfg:       deps.Cfg,
		Store:     deps.Store,
		Embedder:  deps.Embedder,
		Generator: deps.Generator,
		Limiter:   deps.Limiter,
		Logger:    deps.Logger,
		SecLogger: deps.SecLogger,
	}
	ch.Register(api)
	oh := &OpsHandler{Cfg: deps.Cfg, Store: deps.Store}
	oh.Register(api)

	return e
}

// Run loads the store, builds the real collaborators, and serves until the
// listener fails. A store that fails validation refuses to start.
func Run(cfg *config.Config) error {
	st, err := store.Load(cfg.Store.EmbeddingsPath)
	if err != nil {
		return fmt.Errorf("load embedding store: %w", err)
	}

	embedder, err := provider.NewOpenAIClient(provider.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		Model:   cfg.Providers.OpenAI.Model,
		Timeout: cfg.Providers.OpenAI.Timeout,
	})
	if err != nil {
		return err
	}
	generator, err := provider.NewAnthropicClient(provider.AnthropicConfig{
		APIKey:      cfg.Providers.Anthropic.APIKey,
		Model:       cfg.Providers.Anthropic.Model,
		MaxTokens:   cfg.Providers.Anthropic.MaxTokens,
		Temperature: cfg.Providers.Anthropic.Temperature,
		Timeout:     cfg.Providers.Anthropic.Timeout,
	})
	if err != nil {
		return err
	}

	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	var limiter Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = NewRedisLimiter(rdb, cfg.RateLimit.PerMinute, cfg.RateLimit.PerDay, nil)
		logger.Printf("rate limiting via redis at %s", cfg.Redis.Addr)
	} else {
		limiter = NewMemoryLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.PerDay)
	}

	e := New(Deps{
		Cfg:       cfg,
		Store:     st,
		Embedder:  embedder,
		Generator: generator,
		Limiter:   limiter,
		Logger:    logger,
	})

	logger.Printf("serving %d chunks (dim %d), listening on %s", st.Len(), st.Dim(), cfg.Server.Listen)
	return e.Start(cfg.Server.Listen)
}
