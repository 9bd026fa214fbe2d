package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abelbrown/shelf/internal/catalog"
)

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorHandler renders errors as HTTPError JSON.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := HTTPError{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError)}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			resp.Code = he.Code
			resp.Message = fmt.Sprint(he.Message)
		}

		if err := c.JSON(resp.Code, resp); err != nil {
			httpLogger().Error("could not write error response", "code", resp.Code, "error", err)
		}
	}
}

// Validator adapts go-playground/validator to echo.
type Validator struct {
	validate *validator.Validate
}

// NewValidator reports field errors by their query/json names.
func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	// sortmode accepts exactly what catalog.ParseSortMode accepts.
	_ = validate.RegisterValidation("sortmode", func(fl validator.FieldLevel) bool {
		_, err := catalog.ParseSortMode(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// apiKeyAuth rejects requests whose Authorization header is not key.
// Paths in open bypass the check.
func apiKeyAuth(key string, open ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			path := c.Request().URL.Path
			for _, p := range open {
				if path == p {
					return next(c)
				}
			}
			if c.Request().Header.Get("Authorization") != key {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}

// notFoundPath replaces unmatched paths in metric labels to bound cardinality.
const notFoundPath = "/not-found"

// newRequestDuration builds the request histogram and registers it on reg.
func newRequestDuration(reg prometheus.Registerer) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shelf",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving a route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method", "path"})
	reg.MustRegister(h)
	return h
}

// metrics observes request durations, skipping the metrics route itself.
func metrics(h *prometheus.HistogramVec, skip string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == skip {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" || c.Response().Status == http.StatusNotFound || isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}
			h.WithLabelValues(strconv.Itoa(c.Response().Status), c.Request().Method, path).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

// logRequest writes one line per request.
func logRequest(skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, s := range skip {
				if path == s {
					return next(c)
				}
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			httpLogger().Info("request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start))
			return nil
		}
	}
}
