package tgrouter

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grafana/regexp"

	"botrouter/pkg/router"
)

// Bot is the part of *tgbotapi.BotAPI that handlers reply through.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Bot = (*tgbotapi.BotAPI)(nil)

type (
	MatchFunc               = router.MatchFunc[*tgbotapi.Update, Bot]
	HandlerFunc[R any]      = router.HandlerFunc[*tgbotapi.Update, Bot, R]
	MiddlewareFunc[R any]   = router.MiddlewareFunc[*tgbotapi.Update, Bot, R]
	ErrorHandlerFunc[R any] = router.ErrorHandlerFunc[*tgbotapi.Update, Bot, R]
)

type UpdateType string

const (
	UpdateTypeMessage       UpdateType = "message"
	UpdateTypeCallbackQuery UpdateType = "callback_query"
)

type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypePrefix   MatchType = "prefix"
	MatchTypeContains MatchType = "contains"
	MatchTypeRegex    MatchType = "regex"
)

var (
	ErrInvalidUpdateType = errors.New("invalid update type")
	ErrInvalidMatchType  = errors.New("invalid match type")
)

// Router dispatches Telegram updates. The bot client travels as the env
// value, so handlers reply through it.
type Router[R any] struct {
	*router.Router[*tgbotapi.Update, Bot, R]
}

func New[R any](opts ...router.Option) *Router[R] {
	return &Router[R]{
		Router: router.New[*tgbotapi.Update, Bot, R](opts...),
	}
}

// HandleWith registers handler for updates of updateType whose field matches
// pattern the way matchType says. Bad arguments fail here, not at dispatch.
func (r *Router[R]) HandleWith(pattern string, updateType UpdateType, matchType MatchType, handler HandlerFunc[R], middlewares ...MiddlewareFunc[R]) (string, error) {
	match, err := NewMatchFunc(pattern, updateType, matchType)
	if err != nil {
		return "", err
	}
	return r.Handle(match, handler, middlewares...), nil
}

func (r *Router[R]) HandleText(pattern string, matchType MatchType, handler HandlerFunc[R], middlewares ...MiddlewareFunc[R]) (string, error) {
	return r.HandleWith(pattern, UpdateTypeMessage, matchType, handler, middlewares...)
}

func (r *Router[R]) HandleCallback(pattern string, matchType MatchType, handler HandlerFunc[R], middlewares ...MiddlewareFunc[R]) (string, error) {
	return r.HandleWith(pattern, UpdateTypeCallbackQuery, matchType, handler, middlewares...)
}

// NewMatchFunc resolves a predicate from its textual description.
func NewMatchFunc(pattern string, updateType UpdateType, matchType MatchType) (MatchFunc, error) {
	var field FieldMatch
	switch updateType {
	case UpdateTypeMessage:
		field = Text
	case UpdateTypeCallbackQuery:
		field = Callback
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidUpdateType, updateType)
	}

	switch matchType {
	case MatchTypeExact:
		return field.Exact(pattern), nil
	case MatchTypePrefix:
		return field.Prefix(pattern), nil
	case MatchTypeContains:
		return field.Contains(pattern), nil
	case MatchTypeRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s pattern: %w", field, err)
		}
		return field.Regex(re), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchType, matchType)
	}
}
