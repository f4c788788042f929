// Package httpapi wires the gin routers of both services: the token
// issuance endpoint of the auth server and the authenticated WebSocket
// endpoint of the signaling server.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/auth"
	"github.com/Ali4mini/internal-comms/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LoginHandler exchanges a username for a signed session token.
func LoginHandler(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username required"})
			return
		}

		token, err := issuer.Issue(req.Username)
		if err != nil {
			if errors.Is(err, domain.ErrUsernameEmpty) || errors.Is(err, domain.ErrUsernameTooLong) {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			log.Error().Err(err).Str("module", "httpapi").Msg("token issue failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}

		log.Info().Str("module", "httpapi").Str("username", req.Username).Msg("token issued")
		c.JSON(http.StatusOK, loginResponse{Token: token, Username: req.Username})
	}
}
