package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/types"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request once the handler chain finishes.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path

		ctx.Next()

		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ctx.ClientIP()),
		}

		if user, ok := ctx.Get(types.ContextUserKey); ok {
			if u, ok := user.(types.AuthenticatedUser); ok {
				fields = append(fields, zap.Uint("user_id", u.ID))
			}
		}

		for _, e := range ctx.Errors {
			fields = append(fields, zap.Error(e.Err))
		}

		switch status := ctx.Writer.Status(); {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
