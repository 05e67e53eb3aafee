package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestObserver records request durations.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, took time.Duration)
}

// recoverPanics turns handler panics into a 500 envelope.
func recoverPanics(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Str("panic", fmt.Sprint(r)).
						Str("stack", string(debug.Stack())).
						Str("path", c.Path()).
						Msg("handler panicked")
					err = DataResponse(c, http.StatusInternalServerError, "Something went wrong")
				}
			}()
			return next(c)
		}
	}
}

// requestLogging logs and measures each request. The route label is the
// registered path template so label cardinality stays bounded.
func requestLogging(logger zerolog.Logger, observer RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			took := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if observer != nil {
				observer.ObserveRequest(route, c.Request().Method, status, took)
			}

			event := logger.Debug()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", c.Request().Method).
				Str("route", route).
				Str("uri", c.Request().RequestURI).
				Int("status", status).
				Dur("took", took).
				Msg("http request")
			return nil
		}
	}
}
