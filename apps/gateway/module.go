package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/apps/bot"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
)

var Module = fx.Options(
	fx.Invoke(NewServer),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.IConfig
	Logger    logger.Logger
	API       *tgbotapi.BotAPI
	Listener  *bot.Listener
}

// NewServer serves the webhook when the bot is in webhook mode.
func NewServer(params Params) {
	if params.Config.GetString("bot.mode") != config.ModeWebhook {
		return
	}

	engine := NewEngine(EngineParams{
		Logger:   params.Logger,
		Path:     params.Config.GetString("webhook.path"),
		Secret:   params.Config.GetString("webhook.secret"),
		Debug:    params.Config.GetBool("bot.debug"),
		Listener: params.Listener,
	})
	server := http.Server{
		Addr:    params.Config.GetString("webhook.addr"),
		Handler: engine,
	}

	params.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				params.Logger.Info(ctx, "Starting webhook server")
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						params.Logger.Error(ctx, "Err on ListenAndServe", zap.Error(err))
					}
				}()

				if url := params.Config.GetString("webhook.url"); url != "" {
					if err := setWebhook(params.API, url, params.Config.GetString("webhook.secret")); err != nil {
						return err
					}
					params.Logger.Info(ctx, "webhook registered", zap.String("url", url))
				}

				params.Logger.Info(ctx, "Webhook server starting on address", zap.String("addr", server.Addr))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				params.Logger.Info(ctx, "Webhook server stopped")
				return server.Shutdown(ctx)
			},
		},
	)
}

func setWebhook(api *tgbotapi.BotAPI, url, secret string) error {
	p := tgbotapi.Params{"url": url}
	p.AddNonEmpty("secret_token", secret)

	if _, err := api.MakeRequest("setWebhook", p); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}
