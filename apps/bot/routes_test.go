package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrouter/apps/bot/commands"
	"botrouter/apps/bot/middleware"
	"botrouter/internal/client"
	"botrouter/internal/texts"
	"botrouter/pkg/cache"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
	"botrouter/pkg/router"
	"botrouter/pkg/tgrouter"
)

const adminID = 7

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	log := logger.Nop()
	cfg := config.NewStatic(map[string]interface{}{
		"bot.admin_ids":    []int64{adminID},
		"bot.lang_ttl":     time.Hour,
		"bot.id_generator": "ksuid",
	})
	clientSvc := client.New(client.Params{
		Cache:  cache.NewMemory(log),
		Config: cfg,
		Logger: log,
	})
	stats := middleware.NewStats()

	r, err := NewRouter(RouterParams{
		Config:     cfg,
		Logger:     log,
		Commands:   commands.New(commands.Params{Logger: log, ClientSvc: clientSvc, Stats: stats}),
		Middleware: middleware.New(middleware.Params{Logger: log, Config: cfg, ClientSvc: clientSvc, Stats: stats}),
	})
	require.NoError(t, err)
	return r
}

func command(userID int64, text string) *tgbotapi.Update {
	update := message(userID, text)
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Length: length}}
	return update
}

func message(userID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 3,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: userID},
			From:      &tgbotapi.User{ID: userID, FirstName: "Ann", LanguageCode: "en"},
		},
	}
}

func press(userID int64, data string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      fmt.Sprintf("cb-%d", userID),
			Data:    data,
			From:    &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		},
	}
}

func messageText(t *testing.T, c tgbotapi.Chattable) string {
	t.Helper()
	msg, ok := c.(tgbotapi.MessageConfig)
	require.True(t, ok, "expected a MessageConfig, got %T", c)
	return msg.Text
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t)
	bot := &fakeBot{}

	t.Run("start shows welcome and language picker", func(t *testing.T) {
		res, err := r.Fetch(ctx, command(1, "/start"), bot)
		require.NoError(t, err)
		msg, ok := res.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, texts.Get(texts.EN, texts.Welcome), msg.Text)
		assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)
		assert.NotEmpty(t, bot.requests, "typing action sent")
	})

	t.Run("help", func(t *testing.T) {
		res, err := r.Fetch(ctx, command(1, "/help"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.EN, texts.Help), messageText(t, res))
	})

	t.Run("lang", func(t *testing.T) {
		res, err := r.Fetch(ctx, command(1, "/lang"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.EN, texts.ChooseLanguage), messageText(t, res))
	})

	t.Run("language change sticks", func(t *testing.T) {
		res, err := r.Fetch(ctx, press(1, "lang:ru"), bot)
		require.NoError(t, err)
		answer, ok := res.(tgbotapi.CallbackConfig)
		require.True(t, ok)
		assert.Equal(t, "cb-1", answer.CallbackQueryID)
		assert.Equal(t, texts.Get(texts.RU, texts.LanguageChanged), answer.Text)

		res, err = r.Fetch(ctx, command(1, "/help"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.RU, texts.Help), messageText(t, res))

		res, err = r.Fetch(ctx, command(2, "/help"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.EN, texts.Help), messageText(t, res), "other users keep their language")
	})

	t.Run("unknown language button", func(t *testing.T) {
		res, err := r.Fetch(ctx, press(2, "lang:de"), bot)
		require.NoError(t, err)
		answer, ok := res.(tgbotapi.CallbackConfig)
		require.True(t, ok)
		assert.Equal(t, texts.Get(texts.EN, texts.Retry), answer.Text)
	})

	t.Run("hello", func(t *testing.T) {
		res, err := r.Fetch(ctx, message(2, "Hello there"), bot)
		require.NoError(t, err)
		msg, ok := res.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, "Hello, Ann!", msg.Text)
		assert.Equal(t, 3, msg.ReplyToMessageID)
	})

	t.Run("stats for admins only", func(t *testing.T) {
		res, err := r.Fetch(ctx, command(2, "/stats"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.EN, texts.AdminOnly), messageText(t, res))

		res, err = r.Fetch(ctx, command(adminID, "/stats"), bot)
		require.NoError(t, err)
		assert.Contains(t, messageText(t, res), "Updates:")
	})

	t.Run("hello in russian", func(t *testing.T) {
		res, err := r.Fetch(ctx, message(4, "Привет"), bot)
		require.NoError(t, err)
		assert.Equal(t, "Hello, Ann!", messageText(t, res))

		_, err = r.Fetch(ctx, message(4, "hiking"), bot)
		assert.ErrorIs(t, err, router.ErrNoHandler)
	})

	t.Run("unknown command", func(t *testing.T) {
		res, err := r.Fetch(ctx, command(2, "/dance"), bot)
		require.NoError(t, err)
		assert.Equal(t, texts.Get(texts.EN, texts.Unknown), messageText(t, res))
	})

	t.Run("plain text has no route", func(t *testing.T) {
		_, err := r.Fetch(ctx, message(2, "what is this"), bot)
		assert.ErrorIs(t, err, router.ErrNoHandler)
	})

	t.Run("failures reach the error handler", func(t *testing.T) {
		update := press(3, "lang:uz")
		update.CallbackQuery.From = nil

		res, err := r.Fetch(ctx, update, bot)
		require.NoError(t, err)
		answer, ok := res.(tgbotapi.CallbackConfig)
		require.True(t, ok)
		assert.Equal(t, texts.Get(texts.Default, texts.Retry), answer.Text)
	})
}

func TestRoutesOrder(t *testing.T) {
	r := newTestRouter(t)
	// four commands, hello, the language callback and the unknown-command fallback
	assert.Equal(t, 7, r.Len())
}

func TestListenerRepliesThroughBot(t *testing.T) {
	r := newTestRouter(t)
	bot := &fakeBot{}
	l := tgrouter.NewListener(r, bot, tgrouter.SendReply)

	l.HandleUpdate(context.Background(), command(1, "/help"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, texts.Get(texts.EN, texts.Help), messageText(t, bot.sent[0]))
}
