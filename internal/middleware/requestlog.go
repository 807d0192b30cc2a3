package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carshare-console/internal/logger"
)

// RequestLogger writes one line per request.  5xx responses log at error
// level, 4xx at warning.
func RequestLogger(log logger.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler set the final status before we read it
				c.Error(err)
			}

			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				// the query string can carry a one-shot proof token
				logger.String("url_path", c.Request().URL.Path),
				logger.Int("status", status),
				logger.String("remote_ip", c.RealIP()),
				logger.Duration("latency", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, logger.Error(err))
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warning("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
