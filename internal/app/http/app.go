package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mintyfresh/internal/middleware"
	httprouters "mintyfresh/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// HealthChecker зависимость, проверяемая в /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	health  map[string]HealthChecker
	host    string
	port    string
}

func New(log *slog.Logger, sessionSecret string, host, port string, routers *httprouters.Routers, health map[string]HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	e.Use(echomw.CORS())
	e.Use(echomw.Recover())
	e.Use(middleware.PrometheusMetrics)

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		health:  health,
		host:    host,
		port:    port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("port", s.port))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf("%s:%s", s.host, s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// Handler для тестов и встраивания
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) healthHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	code := http.StatusOK

	for name, checker := range s.health {
		if err := checker.HealthCheck(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	return c.JSON(code, status)
}

func (s *Server) BuildRouters() {
	s.e.GET("/health", s.healthHandler)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := s.e.Group("/api/v1")
	{
		galleryGroup := api.Group("/gallery")
		{
			galleryGroup.GET("", s.routers.GetGallery)
			galleryGroup.POST("/reload", s.routers.ReloadGallery)
			galleryGroup.GET("/stream", s.routers.WatchGallery)
			galleryGroup.POST("/photos", s.routers.UploadPhoto)
			galleryGroup.GET("/media/*", s.routers.GetMedia)
			galleryGroup.DELETE("/media/*", s.routers.DeleteMedia)
		}

		api.POST("/wallet", s.routers.ConnectWallet)
		api.DELETE("/wallet", s.routers.DisconnectWallet)

		mintGroup := api.Group("/mints")
		{
			mintGroup.GET("", s.routers.GetMyMints)
			mintGroup.POST("", s.routers.RecordMint)
			mintGroup.GET("/:address", s.routers.GetMints)
			mintGroup.POST("/:address/reload", s.routers.ReloadMints)
			mintGroup.GET("/:address/stream", s.routers.WatchMints)
		}
		api.GET("/mint/:id", s.routers.GetMint)

		viewerGroup := api.Group("/viewers")
		{
			viewerGroup.POST("", s.routers.OpenViewer)
			viewerGroup.GET("/:id", s.routers.GetViewer)
			viewerGroup.PUT("/:id/position", s.routers.MoveViewer)
			viewerGroup.POST("/:id/share", s.routers.ShareViewer)
			viewerGroup.DELETE("/:id", s.routers.CloseViewer)
		}

		api.GET("/share/:token", s.routers.OpenShare)
	}
}
