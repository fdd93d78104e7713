package middleware

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/internal/client"
	"botrouter/internal/ctxman"
	"botrouter/internal/texts"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
	"botrouter/pkg/router"
	"botrouter/pkg/tgrouter"
)

var Module = fx.Provide(New, NewStats)

type (
	Func = tgrouter.MiddlewareFunc[tgbotapi.Chattable]
	Next = tgrouter.HandlerFunc[tgbotapi.Chattable]
)

type Params struct {
	fx.In
	Logger    logger.Logger
	Config    config.IConfig
	ClientSvc client.Service
	Stats     *Stats
}

type Middleware interface {
	// Logging logs each dispatch and how it ended.
	Logging() Func
	// ChatAction shows action (e.g. typing) in the chat while the handler runs.
	ChatAction(action string) Func
	// Language puts the sender's texts.Lang into the context.
	Language() Func
	// AdminOnly answers non-admins with a refusal instead of running the route.
	AdminOnly() Func
	// Stats counts dispatches and failures.
	Stats() Func
}

type mw struct {
	logger    logger.Logger
	clientSvc client.Service
	stats     *Stats
	adminIDs  []int64
}

func New(p Params) Middleware {
	return &mw{
		logger:    p.Logger,
		clientSvc: p.ClientSvc,
		stats:     p.Stats,
		adminIDs:  p.Config.GetInt64Slice("bot.admin_ids"),
	}
}

func (m *mw) Logging() Func {
	return func(ctx context.Context, update *tgbotapi.Update, next Next, bot tgrouter.Bot) (router.Outcome[tgbotapi.Chattable], error) {
		start := time.Now()
		fields := []zap.Field{
			zap.String("user", userIdentifier(Sender(update))),
			zap.String("kind", updateKind(update)),
		}
		if update.Message != nil && update.Message.IsCommand() {
			fields = append(fields, zap.String("command", update.Message.Command()))
		}
		if chat := update.FromChat(); chat != nil {
			fields = append(fields, zap.Int64("chatID", chat.ID))
		}
		m.logger.Info(ctx, "processing update", fields...)

		res, err := next(ctx, update, bot)
		if err != nil {
			m.logger.Error(ctx, "update failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
			return router.Continue[tgbotapi.Chattable](), err
		}
		m.logger.Info(ctx, "update completed", zap.Duration("duration", time.Since(start)))
		return router.Return(res), nil
	}
}

func (m *mw) ChatAction(action string) Func {
	return func(ctx context.Context, update *tgbotapi.Update, next Next, bot tgrouter.Bot) (router.Outcome[tgbotapi.Chattable], error) {
		if update.Message != nil {
			if _, err := bot.Request(tgbotapi.NewChatAction(update.Message.Chat.ID, action)); err != nil {
				m.logger.Warn(ctx, "failed to send chat action", zap.String("action", action), zap.Error(err))
			}
		}

		res, err := next(ctx, update, bot)
		if err != nil {
			return router.Continue[tgbotapi.Chattable](), err
		}
		return router.Return(res), nil
	}
}

func (m *mw) Language() Func {
	return func(ctx context.Context, update *tgbotapi.Update, next Next, bot tgrouter.Bot) (router.Outcome[tgbotapi.Chattable], error) {
		lang := m.resolveLang(ctx, Sender(update))

		res, err := next(ctxman.With(ctx, ctxman.LangKey{}, lang), update, bot)
		if err != nil {
			return router.Continue[tgbotapi.Chattable](), err
		}
		return router.Return(res), nil
	}
}

// resolveLang prefers the language the user picked, then the one their
// Telegram client reports.
func (m *mw) resolveLang(ctx context.Context, user *tgbotapi.User) texts.Lang {
	if user == nil {
		return texts.Default
	}

	lang, err := m.clientSvc.GetLanguageByTgID(ctx, user.ID)
	if err == nil {
		return lang
	}
	if !errors.Is(err, client.ErrNotFound) {
		m.logger.Warn(ctx, "failed to get client language", zap.Int64("tgID", user.ID), zap.Error(err))
	}

	if lang, ok := texts.ParseLang(user.LanguageCode); ok {
		return lang
	}
	return texts.Default
}

func (m *mw) AdminOnly() Func {
	return func(ctx context.Context, update *tgbotapi.Update, next Next, bot tgrouter.Bot) (router.Outcome[tgbotapi.Chattable], error) {
		user := Sender(update)
		if user == nil || !slices.Contains(m.adminIDs, user.ID) {
			m.logger.Warn(ctx, "unauthorized access attempt", zap.String("user", userIdentifier(user)))

			chat := update.FromChat()
			if chat == nil {
				return router.Return[tgbotapi.Chattable](nil), nil
			}
			return router.Return[tgbotapi.Chattable](tgbotapi.NewMessage(chat.ID, texts.Get(LangFrom(ctx), texts.AdminOnly))), nil
		}

		res, err := next(ctx, update, bot)
		if err != nil {
			return router.Continue[tgbotapi.Chattable](), err
		}
		return router.Return(res), nil
	}
}

func (m *mw) Stats() Func {
	return m.stats.Middleware()
}

// LangFrom returns the language Language stored in ctx, or texts.Default.
func LangFrom(ctx context.Context) texts.Lang {
	if lang, ok := ctxman.Get[texts.Lang](ctx, ctxman.LangKey{}); ok {
		return lang
	}
	return texts.Default
}

// Sender returns the user behind a message or callback query.
func Sender(update *tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.EditedMessage != nil:
		return update.EditedMessage.From
	default:
		return nil
	}
}

func updateKind(update *tgbotapi.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.EditedMessage != nil:
		return "edited_message"
	default:
		return "other"
	}
}

func userIdentifier(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}

	if user.UserName != "" {
		return "@" + user.UserName
	}

	if user.FirstName != "" {
		if user.LastName != "" {
			return user.FirstName + " " + user.LastName
		}
		return user.FirstName
	}

	return fmt.Sprintf("user_%d", user.ID)
}
