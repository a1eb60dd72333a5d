// Package auth provides HMAC-based API key authentication for the gRPC and
// HTTP surfaces.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// tenantIDKey is the context key for storing authenticated tenant ID.
const tenantIDKey = contextKey("tenant_id")

// HeaderAPIKey carries the key in gRPC metadata and HTTP headers.
const HeaderAPIKey = "x-api-key"

// DefaultTenant is assigned to every request when authentication is off.
const DefaultTenant = "default"

// Queries interface defines database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
// A nil Authenticator admits every request as DefaultTenant.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		now:     time.Now,
	}
}

type keyRow struct {
	APIKeyID   string        `db:"api_key_id"`
	TenantID   string        `db:"tenant_id"`
	RevokedAt  sql.NullInt64 `db:"revoked_at"`
	LastUsedAt sql.NullInt64 `db:"last_used_at"`
}

// Authenticate validates API key and returns tenant_id on success.
// Returns specific error for each failure mode (5-tier taxonomy).
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	if a == nil {
		return DefaultTenant, nil
	}
	if apiKey == "" {
		return "", ErrMissingKey
	}

	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var row keyRow
	err = a.queries.Get(ctx, "get-api-key-by-hash", &row, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if row.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// 1-minute throttle keeps hot keys from writing on every request
	now := a.now()
	if shouldUpdateLastUsed(row.LastUsedAt, now) {
		_, _ = a.queries.Exec(ctx, "update-last-used", now.UnixMilli(), row.APIKeyID)
	}

	return row.TenantID, nil
}

func shouldUpdateLastUsed(lastUsed sql.NullInt64, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(time.UnixMilli(lastUsed.Int64)) > time.Minute
}

// GRPCCode maps an authentication error to its gRPC status code.
func GRPCCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrStoreUnavailable):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// HTTPStatus maps an authentication error to its HTTP status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Health checks pass through so load balancers need no key.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if info != nil && strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		var apiKey string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if keys := md.Get(HeaderAPIKey); len(keys) > 0 {
				apiKey = keys[0]
			}
		}

		tenantID, err := a.Authenticate(ctx, apiKey)
		if err != nil {
			return nil, status.Error(GRPCCode(err), err.Error())
		}
		return handler(WithTenantID(ctx, tenantID), req)
	}
}

// GinMiddleware authenticates HTTP requests by the x-api-key header and
// stores the tenant on the request context.
func (a *Authenticator) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := a.Authenticate(c.Request.Context(), c.GetHeader(HeaderAPIKey))
		if err != nil {
			c.AbortWithStatusJSON(HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(WithTenantID(c.Request.Context(), tenantID))
		c.Next()
	}
}

// WithTenantID returns ctx carrying tenantID.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromContext extracts tenant ID from context.
// Returns empty string if not found.
func TenantIDFromContext(ctx context.Context) string {
	if tenantID, ok := ctx.Value(tenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}
