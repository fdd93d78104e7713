package tgrouter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"botrouter/pkg/logger"
	"botrouter/pkg/router"
)

// defaultPoolSize - default listener worker count.
const defaultPoolSize = 10

const shutdownPollIntervalMax = 500 * time.Millisecond

var ErrAlreadyServing = errors.New("listener is already serving")

// ReplyFunc delivers the result of a dispatch.
type ReplyFunc[R any] func(ctx context.Context, bot Bot, update *tgbotapi.Update, result R) error

// Listener feeds updates to a Router from a pool of workers.
type Listener[R any] struct {
	router   *Router[R]
	bot      Bot
	reply    ReplyFunc[R]
	poolSize int
	logger   logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	serving bool
	// running counts live workers.
	running atomic.Int64
}

type listenerOptions struct {
	poolSize int
	logger   logger.Logger
}

type ListenerOption func(*listenerOptions)

func WithPoolSize(size int) ListenerOption {
	return func(o *listenerOptions) {
		o.poolSize = size
	}
}

func WithListenerLogger(l logger.Logger) ListenerOption {
	return func(o *listenerOptions) {
		o.logger = l
	}
}

// NewListener builds a listener. A nil reply discards results.
func NewListener[R any](r *Router[R], bot Bot, reply ReplyFunc[R], opts ...ListenerOption) *Listener[R] {
	o := listenerOptions{
		poolSize: defaultPoolSize,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.poolSize <= 0 {
		o.poolSize = defaultPoolSize
	}

	return &Listener[R]{
		router:   r,
		bot:      bot,
		reply:    reply,
		poolSize: o.poolSize,
		logger:   o.logger,
	}
}

// Serve handles updates until ctx is done, Shutdown is called or the channel
// is closed, and then waits for the workers to return.
func (l *Listener[R]) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	l.mu.Lock()
	if l.serving {
		l.mu.Unlock()
		return ErrAlreadyServing
	}
	l.serving = true
	workerCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	defer func() {
		cancel()
		l.mu.Lock()
		l.serving = false
		l.mu.Unlock()
	}()

	l.logger.Info(ctx, "listener started", zap.Int("poolSize", l.poolSize))

	for i := 1; i <= l.poolSize; i++ {
		l.wg.Add(1)
		l.running.Add(1)
		go func(workerID int) {
			defer l.wg.Done()
			defer l.running.Add(-1)
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						l.logger.Debug(ctx, "update channel closed, worker shutting down",
							zap.Int("workerID", workerID))
						return
					}
					l.HandleUpdate(workerCtx, &update)
				case <-workerCtx.Done():
					return
				}
			}
		}(i)
	}

	l.wg.Wait()
	l.logger.Info(ctx, "listener stopped")
	return nil
}

// HandleUpdate dispatches one update and replies with the result.
// ErrNoHandler is dropped; other failures are logged.
func (l *Listener[R]) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	ctx = logger.WithUpdateID(l.logger.Context(ctx), update.UpdateID)
	ctx, capture := l.logger.ContextWithCapture(ctx, "update handled")

	result, err := l.router.Fetch(ctx, update, l.bot)
	if errors.Is(err, router.ErrNoHandler) {
		l.logger.Debug(ctx, "no route for update")
		return
	}
	if err != nil {
		l.logger.Error(ctx, "failed to handle update", zap.Error(err))
		return
	}

	if l.reply != nil {
		if err := l.reply(ctx, l.bot, update, result); err != nil {
			l.logger.Error(ctx, "failed to send reply", zap.Error(err))
			return
		}
	}
	capture()
}

// Shutdown stops the workers and waits until each has finished its current
// update. It returns ctx.Err() if ctx ends first.
func (l *Listener[R]) Shutdown(ctx context.Context) error {
	pollIntervalBase := time.Millisecond
	nextPollInterval := func() time.Duration {
		// Add 10% jitter.
		interval := pollIntervalBase + time.Duration(rand.Intn(int(pollIntervalBase/10)))
		// Double and clamp for next time.
		pollIntervalBase *= 2
		if pollIntervalBase > shutdownPollIntervalMax {
			pollIntervalBase = shutdownPollIntervalMax
		}
		return interval
	}

	l.logger.Info(ctx, "workers, shutting down...")
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	timer := time.NewTimer(nextPollInterval())
	defer timer.Stop()
	for {
		if l.running.Load() == 0 {
			l.logger.Info(ctx, "workers, stopped!")
			return nil
		}
		select {
		case <-ctx.Done():
			l.logger.Warn(ctx, "shutdown timeout exceeded", zap.Int64("running", l.running.Load()))
			return ctx.Err()
		case <-timer.C:
			timer.Reset(nextPollInterval())
		}
	}
}

// SendReply is the ReplyFunc for routers that produce Chattable values.
// A nil result sends nothing.
func SendReply(_ context.Context, bot Bot, _ *tgbotapi.Update, result tgbotapi.Chattable) error {
	if result == nil {
		return nil
	}

	switch result.(type) {
	// These methods answer with true instead of a Message.
	case tgbotapi.CallbackConfig, tgbotapi.ChatActionConfig, tgbotapi.DeleteMessageConfig:
		_, err := bot.Request(result)
		return err
	default:
		_, err := bot.Send(result)
		return err
	}
}
