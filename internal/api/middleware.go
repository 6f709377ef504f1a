package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sukhmangill977/majoor2.0/internal/jwt"
)

// AccessTokenCookie is where the browser client keeps its session token.
const AccessTokenCookie = "access_token"

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// AuthMiddleware gates the protected route group. No token at all is a 401;
// a token that fails signature or expiry checks is a 403. On success the
// embedded user id lands in c.Locals("userID") and nothing else happens.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
		}

		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Token is not valid")
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Token is not valid")
		}

		userID, err := uuid.Parse(sub)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Token is not valid")
		}

		c.Locals("userID", userID)

		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}

	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// CallerID returns the authenticated user id placed by AuthMiddleware.
func CallerID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("userID not found in request context")
	}
	return userID, nil
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		path := c.Route().Path
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
