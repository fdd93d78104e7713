package tgrouter

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grafana/regexp"
)

// FieldMatch builds predicates over one string field of an update.
// A missing field (no message, no callback query, empty text or data)
// never matches.
type FieldMatch struct {
	name  string
	field func(*tgbotapi.Update) (string, bool)
}

var (
	// Text matches the text of a message.
	Text = FieldMatch{name: "text", field: messageText}
	// Callback matches the data of a callback query.
	Callback = FieldMatch{name: "callback", field: callbackData}
)

func messageText(update *tgbotapi.Update) (string, bool) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return "", false
	}
	return update.Message.Text, true
}

func callbackData(update *tgbotapi.Update) (string, bool) {
	if update == nil || update.CallbackQuery == nil || update.CallbackQuery.Data == "" {
		return "", false
	}
	return update.CallbackQuery.Data, true
}

func (f FieldMatch) String() string {
	return f.name
}

func (f FieldMatch) test(pred func(string) bool) MatchFunc {
	return func(update *tgbotapi.Update, _ Bot) bool {
		value, ok := f.field(update)
		return ok && pred(value)
	}
}

func (f FieldMatch) Exact(s string) MatchFunc {
	return f.test(func(value string) bool { return value == s })
}

func (f FieldMatch) Prefix(prefix string) MatchFunc {
	return f.test(func(value string) bool { return strings.HasPrefix(value, prefix) })
}

func (f FieldMatch) Contains(s string) MatchFunc {
	return f.test(func(value string) bool { return strings.Contains(value, s) })
}

// Regex matches when re finds a match anywhere in the field. Anchor the
// expression to match the whole value.
func (f FieldMatch) Regex(re *regexp.Regexp) MatchFunc {
	return f.test(re.MatchString)
}

// Command matches a message carrying the bot command name, without the
// leading slash. Commands addressed as /name@botname match too.
func Command(name string) MatchFunc {
	return func(update *tgbotapi.Update, _ Bot) bool {
		if update == nil || update.Message == nil {
			return false
		}
		return update.Message.IsCommand() && update.Message.Command() == name
	}
}

func Any() MatchFunc {
	return func(*tgbotapi.Update, Bot) bool {
		return true
	}
}

// And matches when every predicate does. It stops at the first miss.
func And(matches ...MatchFunc) MatchFunc {
	return func(update *tgbotapi.Update, bot Bot) bool {
		for _, match := range matches {
			if !match(update, bot) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate does. It stops at the first hit.
func Or(matches ...MatchFunc) MatchFunc {
	return func(update *tgbotapi.Update, bot Bot) bool {
		for _, match := range matches {
			if match(update, bot) {
				return true
			}
		}
		return false
	}
}
