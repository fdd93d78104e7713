package tgrouter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"botrouter/pkg/logger"
)

func echoRouter() *Router[tgbotapi.Chattable] {
	r := New[tgbotapi.Chattable]()
	_, _ = r.HandleText("fail", MatchTypeExact, func(context.Context, *tgbotapi.Update, Bot) (tgbotapi.Chattable, error) {
		return nil, errors.New("handler failed")
	})
	_, _ = r.HandleText("", MatchTypePrefix, func(_ context.Context, update *tgbotapi.Update, _ Bot) (tgbotapi.Chattable, error) {
		return tgbotapi.NewMessage(update.Message.Chat.ID, "echo: "+update.Message.Text), nil
	})
	_, _ = r.HandleCallback("", MatchTypePrefix, func(_ context.Context, update *tgbotapi.Update, _ Bot) (tgbotapi.Chattable, error) {
		return tgbotapi.NewCallback(update.CallbackQuery.ID, "ok"), nil
	})
	return r
}

func TestListenerHandleUpdate(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bot := &fakeBot{}
	l := NewListener(echoRouter(), bot, SendReply, WithListenerLogger(logger.FromZap(zap.New(core))))

	l.HandleUpdate(context.Background(), textUpdate("hi"))
	sent := bot.Sent()
	require.Len(t, sent, 1)
	msg, ok := sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "echo: hi", msg.Text)
	assert.Equal(t, int64(100), msg.ChatID)

	handled := logs.FilterMessage("update handled").All()
	require.Len(t, handled, 1)
	assert.Equal(t, int64(1), handled[0].ContextMap()["updateID"])

	l.HandleUpdate(context.Background(), callbackUpdate("lang:ru"))
	requests := bot.Requests()
	require.Len(t, requests, 1)
	assert.IsType(t, tgbotapi.CallbackConfig{}, requests[0])

	l.HandleUpdate(context.Background(), &tgbotapi.Update{UpdateID: 3})
	assert.Equal(t, 1, logs.FilterMessage("no route for update").Len())

	l.HandleUpdate(context.Background(), textUpdate("fail"))
	assert.Equal(t, 1, logs.FilterMessage("failed to handle update").Len())
	assert.Len(t, bot.Sent(), 1)
}

func TestListenerReplyFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bot := &fakeBot{fail: true}
	l := NewListener(echoRouter(), bot, SendReply, WithListenerLogger(logger.FromZap(zap.New(core))))

	l.HandleUpdate(context.Background(), textUpdate("hi"))
	entries := logs.FilterMessage("failed to send reply").All()
	require.Len(t, entries, 1)
	assert.Equal(t, errSendFailed.Error(), entries[0].ContextMap()["error"])
}

func TestListenerNilReplyDiscards(t *testing.T) {
	bot := &fakeBot{}
	l := NewListener(echoRouter(), bot, nil)

	l.HandleUpdate(context.Background(), textUpdate("hi"))
	assert.Empty(t, bot.Sent())
}

func TestListenerServeUntilChannelClosed(t *testing.T) {
	bot := &fakeBot{}
	l := NewListener(echoRouter(), bot, SendReply, WithPoolSize(3))

	updates := make(chan tgbotapi.Update, 10)
	for range 10 {
		updates <- *textUpdate("hi")
	}
	close(updates)

	require.NoError(t, l.Serve(context.Background(), updates))
	assert.Len(t, bot.Sent(), 10)
}

func TestListenerServeStopsOnContextCancel(t *testing.T) {
	l := NewListener(echoRouter(), &fakeBot{}, SendReply)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, make(chan tgbotapi.Update))
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenerShutdown(t *testing.T) {
	l := NewListener(echoRouter(), &fakeBot{}, SendReply, WithPoolSize(4))
	updates := make(chan tgbotapi.Update)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, l.Serve(context.Background(), updates))
	}()

	assert.Eventually(t, func() bool { return l.running.Load() == 4 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, l.Serve(context.Background(), updates), ErrAlreadyServing)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Shutdown(ctx))
	assert.Zero(t, l.running.Load())
	wg.Wait()
}

func TestListenerShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	r := New[tgbotapi.Chattable]()
	r.Handle(Any(), func(context.Context, *tgbotapi.Update, Bot) (tgbotapi.Chattable, error) {
		<-release
		return nil, nil
	})
	l := NewListener(r, &fakeBot{}, SendReply, WithPoolSize(1))

	updates := make(chan tgbotapi.Update, 1)
	updates <- *textUpdate("block")
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = l.Serve(context.Background(), updates)
	}()
	assert.Eventually(t, func() bool { return len(updates) == 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	<-served
}

func TestListenerShutdownBeforeServe(t *testing.T) {
	l := NewListener(echoRouter(), &fakeBot{}, SendReply)
	assert.NoError(t, l.Shutdown(context.Background()))
}

func TestSendReply(t *testing.T) {
	bot := &fakeBot{}
	ctx := context.Background()

	require.NoError(t, SendReply(ctx, bot, nil, nil))
	require.NoError(t, SendReply(ctx, bot, nil, tgbotapi.NewMessage(1, "hi")))
	require.NoError(t, SendReply(ctx, bot, nil, tgbotapi.NewChatAction(1, tgbotapi.ChatTyping)))
	require.NoError(t, SendReply(ctx, bot, nil, tgbotapi.NewDeleteMessage(1, 2)))

	assert.Len(t, bot.Sent(), 1)
	assert.Len(t, bot.Requests(), 2)
}
