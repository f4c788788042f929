package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/adapters/signalws"
	"github.com/Ali4mini/internal-comms/internal/auth"
	"github.com/Ali4mini/internal-comms/internal/config"
)

// AuthMiddleware verifies the token presented with the upgrade request
// and attaches the identity to the request context. It runs exactly
// once per connection; a failed check refuses the connection before
// any upgrade happens, so no partially-authenticated state exists.
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := verifier.Verify(c.Query("token"))
		if err != nil {
			log.Warn().Err(err).Str("module", "httpapi").Str("remote", c.ClientIP()).Msg("connection refused")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication error"})
			return
		}
		c.Set(signalws.IdentityKey, ident)
		c.Next()
	}
}

func newEngine(cfg *config.Config) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	return r
}

// SetupAuthRouter builds the auth server: a single stateless login
// endpoint.
func SetupAuthRouter(cfg *config.Config, issuer *auth.Issuer) *gin.Engine {
	r := newEngine(cfg)
	r.POST("/login", LoginHandler(issuer))
	return r
}

// SetupSignalRouter builds the signaling server: the WebSocket
// endpoint behind token verification.
func SetupSignalRouter(ctx context.Context, cfg *config.Config, verifier *auth.Verifier, ctl *signalws.Controller) *gin.Engine {
	r := newEngine(cfg)

	ws := r.Group("/ws")
	ws.Use(AuthMiddleware(verifier))
	ws.GET("/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "httpapi").Msg("signal router setup")
	return r
}
