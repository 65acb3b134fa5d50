package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Claims identify the authenticated caller. UserID is the owner key for
// every file the caller creates or lists.
type Claims struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

const claimsContextKey = "auth_claims"

type Authenticator struct {
	db *pgxpool.Pool
}

func NewAuthenticator(db *pgxpool.Pool) *Authenticator {
	return &Authenticator{db: db}
}

func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "no token, authorization denied")
		}

		claims, err := a.Authenticate(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token is not valid")
		}
		SetClaims(c, claims)

		return next(c)
	}
}

// Authenticate resolves a bearer token to its user. Tokens are stored only
// as sha256 hashes, so the lookup hashes first.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Claims, error) {
	sum := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(sum[:])

	var claims Claims
	err := a.db.QueryRow(ctx, `
		SELECT u.id, u.name, u.email
		FROM session_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`, tokenHash).Scan(&claims.UserID, &claims.Name, &claims.Email)
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func GetClaims(c echo.Context) (Claims, bool) {
	raw := c.Get(claimsContextKey)
	if raw == nil {
		return Claims{}, false
	}
	claims, ok := raw.(Claims)
	return claims, ok
}

// SetClaims stores claims in the request context. Exposed for handler tests
// that bypass the middleware.
func SetClaims(c echo.Context, claims Claims) {
	c.Set(claimsContextKey, claims)
}

func extractToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Token"))
}
