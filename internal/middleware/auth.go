package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/types"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.AuthenticatedUser, error)
}

// AuthMiddleware requires a valid bearer token. Browsers cannot set headers on
// websocket upgrades, so a token query parameter is accepted as well.
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		user, err := authn.Authenticate(ctx.Request.Context(), tokenString)

		if err != nil {
			status := apperr.HTTPStatus(apperr.KindOf(err))
			message := "Unauthenticated."
			if status == http.StatusInternalServerError {
				ctx.Error(err)
				message = "Internal server error"
			}
			ctx.AbortWithStatusJSON(status, gin.H{"message": message})
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	return ctx.Query("token")
}
