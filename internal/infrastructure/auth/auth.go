package auth

import (
	"context"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/config"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

const (
	// CallerIDKey is the gin context key holding the resolved caller id.
	CallerIDKey = "caller_id"
	// GuestCallerID is used when the request carries no identity.
	GuestCallerID = "guest"

	userIDHeader = "X-User-ID"
)

// Validator validates JWTs using JWKS and resolves the caller id forwarded upstream.
type Validator struct {
	cfg     *config.Config
	log     zerolog.Logger
	keyFunc jwt.Keyfunc
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	log = log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: log}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	return NewValidatorWithKeyfunc(cfg, log, jwks.Keyfunc), nil
}

// NewValidatorWithKeyfunc builds an enabled validator on a caller supplied key source.
func NewValidatorWithKeyfunc(cfg *config.Config, log zerolog.Logger, keyFunc jwt.Keyfunc) *Validator {
	return &Validator{cfg: cfg, log: log, keyFunc: keyFunc}
}

// Middleware enforces JWT auth when enabled and stores the caller id.
// With auth disabled the X-User-ID header is trusted, falling back to guest.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled || v.keyFunc == nil {
		return func(c *gin.Context) {
			callerID := strings.TrimSpace(c.GetHeader(userIDHeader))
			if callerID == "" {
				callerID = GuestCallerID
			}
			c.Set(CallerIDKey, callerID)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, v.keyFunc,
			jwt.WithAudience(v.cfg.AuthAudience),
			jwt.WithIssuer(v.cfg.AuthIssuer),
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		)
		if err != nil || !token.Valid {
			v.log.Debug().Err(err).Msg("rejected bearer token")
			abortUnauthorized(c, "invalid token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set("auth_token", token)
		c.Set(CallerIDKey, subject)
		c.Next()
	}
}

// CallerID returns the caller id set by the middleware.
func CallerID(c *gin.Context) string {
	if id := c.GetString(CallerIDKey); id != "" {
		return id
	}
	return GuestCallerID
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	platformerrors.WriteUnauthorized(c, message)
}
