package http

import (
	"math"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/diet-coach/utils/log"
)

type RouterConfig struct {
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit    float64
	BodyLimit    string
	AllowOrigins []string
}

// NewRouter builds the echo instance with middleware and every route.
// ws serves "/ws" and may be nil.
func NewRouter(cfg RouterConfig, h *Handler, ws echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestContext)
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(rateLimiterStore(cfg.RateLimit)))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	api := e.Group("/api")
	api.GET("/health", h.HealthCheck)

	auth := api.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.GET("/check-id", h.CheckID)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	member := api.Group("/member", h.auth.JWTMiddleware)
	member.GET("/info", h.MemberInfo)

	food := api.Group("/food", h.auth.JWTMiddleware)
	food.GET("/search", h.SearchFood)
	food.POST("/record/add", h.AddFoodRecord)
	food.GET("/record/today", h.TodayFoodRecords)
	food.DELETE("/record/:recordId", h.DeleteFoodRecord)

	gemini := api.Group("/gemini", h.auth.JWTMiddleware)
	gemini.GET("/chat/stream", h.ChatStream)
	gemini.POST("/advice/today", h.TodayAdvice)

	if ws != nil {
		e.GET("/ws", ws, h.auth.JWTMiddleware)
	}
	return e
}

// rateLimiterStore allows a burst of at least one request so fractional rates
// still let traffic through.
func rateLimiterStore(perSecond float64) *middleware.RateLimiterMemoryStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: max(1, int(math.Ceil(perSecond))),
	})
}

// requestContext copies the request id into the request context for log.WithCtx.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			ctx := log.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			logger := log.WithCtx(c.Request().Context())
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
