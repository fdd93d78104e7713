package gateway

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"botrouter/pkg/logger"
)

// SecretHeader is where Telegram echoes the webhook's secret_token.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler dispatches one decoded update. *bot.Listener implements it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

type EngineParams struct {
	Logger   logger.Logger
	Path     string
	Secret   string
	Debug    bool
	Listener UpdateHandler
}

func NewEngine(p EngineParams) *gin.Engine {
	if !p.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(withLogContext(p.Logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(p.Path, checkSecret(p.Secret, p.Logger), webhook(p.Listener, p.Logger))
	return r
}

func withLogContext(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := l.Context(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func checkSecret(secret string, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			l.Warn(c.Request.Context(), "webhook secret mismatch", zap.String("remote", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
		c.Next()
	}
}

// webhook answers 200 once the update is decoded, whatever the dispatch
// outcome, so Telegram does not redeliver it.
func webhook(h UpdateHandler, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			l.Warn(ctx, "failed to decode update", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
			return
		}

		h.HandleUpdate(ctx, &update)
		c.Status(http.StatusOK)
	}
}
