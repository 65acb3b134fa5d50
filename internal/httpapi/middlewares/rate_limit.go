package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"terrastore/internal/auth"
	"terrastore/internal/ratelimit"

	"github.com/labstack/echo/v4"
)

type tokenVerifier interface {
	Authenticate(context.Context, string) (auth.Claims, error)
}

func NewRateLimitMiddleware(verifier tokenVerifier) echo.MiddlewareFunc {
	return newRateLimitMiddlewareWithConfig(verifier, ratelimit.Config{
		Window: time.Minute,
		Read:   240,
		Write:  60,
	})
}

func newRateLimitMiddlewareWithConfig(verifier tokenVerifier, cfg ratelimit.Config) echo.MiddlewareFunc {
	limiter := ratelimit.New(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := requestScope(c.Request().Method)
			client := resolveClient(c, verifier)

			result := limiter.Take(time.Now().UTC(), scope, client)
			setRateLimitHeaders(c.Response().Header(), result)

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.ResetIn, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}

func requestScope(method string) ratelimit.Scope {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ratelimit.ScopeRead
	default:
		return ratelimit.ScopeWrite
	}
}

// resolveClient buckets authenticated callers per user so one user behind a
// NAT cannot exhaust the budget of everyone else on that IP.
func resolveClient(c echo.Context, verifier tokenVerifier) string {
	authz := strings.TrimSpace(c.Request().Header.Get("Authorization"))
	token := ""
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		token = strings.TrimSpace(authz[7:])
	}
	if token != "" && verifier != nil {
		if claims, err := verifier.Authenticate(c.Request().Context(), token); err == nil {
			return "user:" + claims.UserID.String()
		}
	}
	return "ip:" + c.RealIP()
}

func setRateLimitHeaders(h http.Header, result ratelimit.Result) {
	if result.Limit <= 0 {
		return
	}
	h.Set("RateLimit-Limit", strconv.Itoa(result.Limit))
	h.Set("RateLimit-Remaining", strconv.Itoa(result.Remaining))
	h.Set("RateLimit-Reset", strconv.FormatInt(result.ResetIn, 10))
}
