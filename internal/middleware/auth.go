package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/serenemind/clinic-api/pkg/auth"
	"github.com/serenemind/clinic-api/pkg/errors"
	"github.com/serenemind/clinic-api/pkg/httputil"
)

const ContextUserID = "user_id"

// Auth validates the bearer token on every request. Tokens come from
// the external identity provider; only signature and expiry are
// checked here.
func Auth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, errors.NewUnauthorized("authorization header required"))
			c.Abort()
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			httputil.RespondWithError(c, errors.NewUnauthorized("invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			httputil.RespondWithError(c, errors.NewUnauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Next()
	}
}
