package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie the web client keeps its session token in
const SessionCookieName = "__session"

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserIDKey is the context key for the authenticated identity (token subject)
	UserIDKey contextKey = "user_id"
)

var (
	errMissingToken = errors.New("missing session token")
	errInvalidToken = errors.New("invalid token")
)

// TokenValidator validates a raw token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// IdentityResolver resolves the identity behind a request
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (*validator.ValidatedClaims, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator TokenValidator
}

var _ IdentityResolver = (*AuthMiddleware)(nil)

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return NewAuthMiddlewareWithValidator(jwtValidator), nil
}

// NewAuthMiddlewareWithValidator creates an AuthMiddleware around an existing validator
func NewAuthMiddlewareWithValidator(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// ExtractToken reads the bearer token from the Authorization header, falling back to the session cookie
func ExtractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errMissingToken
}

// ResolveToken validates token and returns its claims
func (m *AuthMiddleware) ResolveToken(ctx context.Context, token string) (*validator.ValidatedClaims, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, errInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok || validatedClaims.RegisteredClaims.Subject == "" {
		return nil, errInvalidToken
	}
	return validatedClaims, nil
}

// ResolveIdentity implements IdentityResolver
func (m *AuthMiddleware) ResolveIdentity(r *http.Request) (*validator.ValidatedClaims, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return nil, err
	}
	return m.ResolveToken(r.Context(), token)
}

// WithIdentity stores the claims and their subject in ctx
func WithIdentity(ctx context.Context, claims *validator.ValidatedClaims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.RegisteredClaims.Subject)
}

// Authenticate returns an Echo middleware that rejects requests without a valid token
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserID(c) != "" {
				return next(c)
			}

			claims, err := m.ResolveIdentity(c.Request())
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) string {
	return UserIDFromContext(c.Request().Context())
}

// UserIDFromContext extracts the authenticated user ID from ctx
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireUserID returns the user ID or domain.ErrUnauthenticated
func RequireUserID(c echo.Context) (string, error) {
	id := GetUserID(c)
	if id == "" {
		return "", domain.ErrUnauthenticated
	}
	return id, nil
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}
