package commands

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/apps/bot/middleware"
	"botrouter/internal/client"
	"botrouter/internal/keyboards"
	"botrouter/internal/texts"
	"botrouter/pkg/logger"
	"botrouter/pkg/tgrouter"
	"botrouter/pkg/tgrouter/callback"
)

var Module = fx.Provide(New)

var (
	ErrNoChat   = errors.New("update has no chat")
	ErrNoSender = errors.New("update has no sender")
)

type Params struct {
	fx.In
	Logger    logger.Logger
	ClientSvc client.Service
	Stats     *middleware.Stats
}

type Commands struct {
	logger    logger.Logger
	ClientSvc client.Service
	stats     *middleware.Stats
}

func New(p Params) Commands {
	return Commands{
		logger:    p.Logger,
		ClientSvc: p.ClientSvc,
		stats:     p.Stats,
	}
}

func chatID(update *tgbotapi.Update) (int64, error) {
	chat := update.FromChat()
	if chat == nil {
		return 0, ErrNoChat
	}
	return chat.ID, nil
}

func (c *Commands) Start(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "start command", zap.Int64("chatID", id))

	msg := tgbotapi.NewMessage(id, texts.Get(middleware.LangFrom(ctx), texts.Welcome))
	msg.ReplyMarkup = keyboards.LanguageKeyboard()
	return msg, nil
}

func (c *Commands) ChooseLanguage(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}

	msg := tgbotapi.NewMessage(id, texts.Get(middleware.LangFrom(ctx), texts.ChooseLanguage))
	msg.ReplyMarkup = keyboards.LanguageKeyboard()
	return msg, nil
}

// ChangeLanguage handles a language picker button. It confirms in the new
// language and answers the callback query.
func (c *Commands) ChangeLanguage(ctx context.Context, update *tgbotapi.Update, bot tgrouter.Bot) (tgbotapi.Chattable, error) {
	query := update.CallbackQuery
	lang, ok := texts.ParseLang(callback.Value(query.Data))
	if !ok {
		c.logger.Warn(ctx, "unknown language in callback", zap.String("data", query.Data))
		return tgbotapi.NewCallback(query.ID, texts.Get(middleware.LangFrom(ctx), texts.Retry)), nil
	}

	user := middleware.Sender(update)
	if user == nil {
		return nil, ErrNoSender
	}
	if err := c.ClientSvc.UpdateLanguage(ctx, user.ID, lang); err != nil {
		return nil, fmt.Errorf("failed to update language: %w", err)
	}

	if id, err := chatID(update); err == nil {
		if _, err := bot.Send(tgbotapi.NewMessage(id, texts.Get(lang, texts.Help))); err != nil {
			c.logger.Warn(ctx, "failed to send help after language change", zap.Error(err))
		}
	}
	return tgbotapi.NewCallback(query.ID, texts.Get(lang, texts.LanguageChanged)), nil
}

func (c *Commands) Help(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}
	return tgbotapi.NewMessage(id, texts.Get(middleware.LangFrom(ctx), texts.Help)), nil
}

// Hello greets the sender by first name.
func (c *Commands) Hello(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}

	name := "friend"
	if user := middleware.Sender(update); user != nil && user.FirstName != "" {
		name = user.FirstName
	}
	msg := tgbotapi.NewMessage(id, fmt.Sprintf(texts.Get(middleware.LangFrom(ctx), texts.Hello), name))
	msg.ReplyToMessageID = update.Message.MessageID
	return msg, nil
}

func (c *Commands) Stats(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}

	snap := c.stats.Snapshot()
	return tgbotapi.NewMessage(id, fmt.Sprintf(texts.Get(middleware.LangFrom(ctx), texts.Stats), snap.Updates, snap.Failures)), nil
}

func (c *Commands) Unknown(ctx context.Context, update *tgbotapi.Update, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	id, err := chatID(update)
	if err != nil {
		return nil, err
	}
	return tgbotapi.NewMessage(id, texts.Get(middleware.LangFrom(ctx), texts.Unknown)), nil
}

// Failure is the router's error handler: it tells the user to retry.
func (c *Commands) Failure(ctx context.Context, update *tgbotapi.Update, err error, _ tgrouter.Bot) (tgbotapi.Chattable, error) {
	c.logger.Error(ctx, "failed to handle update", zap.Error(err))

	if update.CallbackQuery != nil {
		return tgbotapi.NewCallback(update.CallbackQuery.ID, texts.Get(middleware.LangFrom(ctx), texts.Retry)), nil
	}
	id, chatErr := chatID(update)
	if chatErr != nil {
		return nil, nil
	}
	return tgbotapi.NewMessage(id, texts.Get(middleware.LangFrom(ctx), texts.Retry)), nil
}
