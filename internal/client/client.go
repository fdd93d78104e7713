package client

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/internal/texts"
	"botrouter/pkg/cache"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
)

var (
	Module = fx.Provide(New)

	ErrNotFound = errors.New("client language not set")
)

type (
	Params struct {
		fx.In
		Cache  cache.ICache
		Config config.IConfig
		Logger logger.Logger
	}

	// Service keeps the language each Telegram user picked.
	Service interface {
		UpdateLanguage(ctx context.Context, tgID int64, lang texts.Lang) error
		GetLanguageByTgID(ctx context.Context, tgID int64) (texts.Lang, error)
	}
	service struct {
		cache  cache.ICache
		ttl    time.Duration
		logger logger.Logger
	}
)

func New(p Params) Service {
	return &service{
		cache:  p.Cache,
		ttl:    p.Config.GetDuration("bot.lang_ttl"),
		logger: p.Logger,
	}
}

func langKey(tgID int64) string {
	return "lang:" + strconv.FormatInt(tgID, 10)
}

func (s service) GetLanguageByTgID(ctx context.Context, tgID int64) (texts.Lang, error) {
	raw, err := s.cache.Get(ctx, langKey(tgID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", ErrNotFound
		}
		s.logger.Error(ctx, " err on s.cache.Get", zap.Error(err))
		return "", err
	}

	lang, ok := texts.ParseLang(raw)
	if !ok {
		s.logger.Warn(ctx, "stored language is not supported", zap.String("lang", raw))
		return "", ErrNotFound
	}
	return lang, nil
}

func (s service) UpdateLanguage(ctx context.Context, tgID int64, lang texts.Lang) error {
	if err := s.cache.Set(ctx, langKey(tgID), string(lang), s.ttl); err != nil {
		s.logger.Error(ctx, " err on s.cache.Set", zap.Error(err))
		return err
	}
	return nil
}
