package middleware

import (
	"context"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"botrouter/pkg/router"
	"botrouter/pkg/tgrouter"
)

// Stats counts dispatches that went through its middleware.
type Stats struct {
	updates  atomic.Int64
	failures atomic.Int64
	started  time.Time
}

type Snapshot struct {
	Updates  int64
	Failures int64
	Uptime   time.Duration
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) Middleware() Func {
	return func(ctx context.Context, update *tgbotapi.Update, next Next, bot tgrouter.Bot) (router.Outcome[tgbotapi.Chattable], error) {
		s.updates.Add(1)

		res, err := next(ctx, update, bot)
		if err != nil {
			s.failures.Add(1)
			return router.Continue[tgbotapi.Chattable](), err
		}
		return router.Return(res), nil
	}
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Updates:  s.updates.Load(),
		Failures: s.failures.Load(),
		Uptime:   time.Since(s.started),
	}
}
