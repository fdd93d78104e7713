package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/apps/bot/commands"
	"botrouter/apps/bot/middleware"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
	"botrouter/pkg/router"
	"botrouter/pkg/tgrouter"
)

type (
	Router   = tgrouter.Router[tgbotapi.Chattable]
	Listener = tgrouter.Listener[tgbotapi.Chattable]
)

var Module = fx.Options(
	middleware.Module,
	commands.Module,

	fx.Provide(
		NewBotAPI,
		func(api *tgbotapi.BotAPI) tgrouter.Bot { return api },
		NewRouter,
		NewListener,
	),

	fx.Invoke(StartPolling),
)

func NewBotAPI(cfg config.IConfig, log logger.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.GetString("bot.token"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	api.Debug = cfg.GetBool("bot.debug")
	log.Info(context.Background(), "authorized on account", zap.String("username", api.Self.UserName))

	registerCommands(api, log)
	return api, nil
}

func registerCommands(api *tgbotapi.BotAPI, log logger.Logger) {
	cfg := tgbotapi.NewSetMyCommands([]tgbotapi.BotCommand{
		{Command: "start", Description: "Start over"},
		{Command: "lang", Description: "Change language"},
		{Command: "help", Description: "Show help"},
	}...)

	if _, err := api.Request(cfg); err != nil {
		log.Warn(context.Background(), "failed to register bot commands", zap.Error(err))
	}
}

type RouterParams struct {
	fx.In

	Config     config.IConfig
	Logger     logger.Logger
	Commands   commands.Commands
	Middleware middleware.Middleware
}

func NewRouter(p RouterParams) (*Router, error) {
	r := tgrouter.New[tgbotapi.Chattable](
		router.WithIDGenerator(router.IDGeneratorByName(p.Config.GetString("bot.id_generator"))),
		router.WithLogger(p.Logger),
	)
	if err := Register(r, p.Commands, p.Middleware); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	return r, nil
}

func NewListener(r *Router, bot tgrouter.Bot, cfg config.IConfig, log logger.Logger) *Listener {
	return tgrouter.NewListener(r, bot, tgrouter.SendReply,
		tgrouter.WithPoolSize(cfg.GetInt("bot.pool_size")),
		tgrouter.WithListenerLogger(log),
	)
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.IConfig
	Logger    logger.Logger
	API       *tgbotapi.BotAPI
	Listener  *Listener
}

// StartPolling runs the listener on long polling when the bot is in polling
// mode. Webhook mode is served by the gateway.
func StartPolling(p Params) {
	if p.Config.GetString("bot.mode") != config.ModePolling {
		return
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			u := tgbotapi.NewUpdate(0)
			u.Timeout = p.Config.GetInt("bot.poll_timeout")
			updates := p.API.GetUpdatesChan(u)

			go func() {
				if err := p.Listener.Serve(context.Background(), updates); err != nil {
					p.Logger.Error(context.Background(), "listener failed", zap.Error(err))
				}
			}()
			p.Logger.Info(ctx, "bot started!", zap.String("mode", config.ModePolling))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.API.StopReceivingUpdates()

			ctx, cancel := context.WithTimeout(ctx, p.Config.GetDuration("bot.shutdown_timeout"))
			defer cancel()
			if err := p.Listener.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to stop listener: %w", err)
			}
			p.Logger.Info(ctx, "bot stopped!")
			return nil
		},
	})
}
