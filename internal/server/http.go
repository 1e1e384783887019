package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/term-dates/internal/logger"
	"github.com/pfrederiksen/term-dates/internal/storage"
	"github.com/pfrederiksen/term-dates/internal/term"
)

// DefaultRateLimit is the number of requests per minute allowed from one client IP
const DefaultRateLimit = 60

// Reader is the read side of the cache store
type Reader interface {
	GetYear(year int) (term.YearData, bool)
	Status(now time.Time) storage.HealthStatus
}

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	RateLimit int                 // requests per minute per IP (default: 60, negative disables)
	Gatherer  prometheus.Gatherer // source for /metrics (default: prometheus.DefaultGatherer)
	Now       func() time.Time    // clock for health freshness (default: time.Now)
	Logger    *logger.Logger      // request log destination (default: logger.Default())
}

// New creates a new HTTP server
func New(store Reader, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := NewHandler(store, cfg.Now)

	// Global middleware stack (order matters)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(middleware.Secure())
	if limit := rateLimit(cfg.RateLimit); limit > 0 {
		e.Use(rateLimiter(limit))
	}

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.GET("/v1/dates/:year", handler.Dates)
	e.GET("/v1/dates/:year/ics", handler.DatesICS)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

func rateLimit(n int) int {
	if n == 0 {
		return DefaultRateLimit
	}
	return n
}

// rateLimiter allows perMinute requests per client IP, refilled evenly
func rateLimiter(perMinute int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorBody("Unable to identify client"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody("Too many requests, please try again later."))
		},
	})
}

// requestLogger writes one structured entry per request through the service logger
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := logger.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				log.Error("Request failed", fields, v.Error)
				return nil
			}
			log.Debug("Request served", fields)
			return nil
		},
	})
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
