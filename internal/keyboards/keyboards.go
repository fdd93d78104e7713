package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"botrouter/internal/texts"
	"botrouter/pkg/tgrouter/callback"
)

// LangQuery is the callback query of the language picker buttons.
const LangQuery = "lang"

// LanguageKeyboard offers every supported language, each button named in
// its own language.
func LanguageKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(texts.Langs))
	for _, lang := range texts.Langs {
		// "lang:xx" is far below the callback data limit
		data, _ := callback.Encode(LangQuery, string(lang))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(texts.Get(lang, texts.LanguageName), data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
