package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPErrorsTotal tracks HTTP errors by kind
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error kind",
		},
		[]string{"kind"},
	)
)

// Middleware returns an Echo middleware that converts errors returned
// by handlers into JSON responses. Echo's own HTTPErrors pass through
// unchanged so middleware-generated status codes survive.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(kindForStatus(httpErr.Code))).Inc()
				return err
			}

			structured := From(err)
			HTTPErrorsTotal.WithLabelValues(string(structured.Kind)).Inc()
			logError(c, structured)

			if err := c.JSON(structured.HTTPStatus(), structured.Response()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *Error) {
	attrs := []any{
		"kind", err.Kind,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Fields {
		attrs = append(attrs, k, v)
	}

	switch err.Kind {
	case KindValidation:
		slog.Info("Validation error", attrs...)
	case KindNotFound:
		slog.Info("Not found", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindInternal
	}
}
