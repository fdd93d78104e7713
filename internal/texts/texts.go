package texts

import "strings"

type Lang string

const (
	RU Lang = "ru"
	UZ Lang = "uz"
	EN Lang = "en"
)

// Default is used when a user has not picked a language and Telegram
// reports none we support.
const Default = EN

// Langs lists the supported languages in keyboard order.
var Langs = []Lang{UZ, RU, EN}

type Language struct {
	RU string
	UZ string
	EN string
}

func (l Language) By(lang Lang) string {
	switch lang {
	case RU:
		return l.RU
	case UZ:
		return l.UZ
	default:
		return l.EN
	}
}

// ParseLang accepts a language code such as "ru" or an IETF tag such as
// "ru-RU" or "uz_Latn".
func ParseLang(lang string) (Lang, bool) {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}
	switch Lang(lang) {
	case RU, UZ, EN:
		return Lang(lang), true
	default:
		return "", false
	}
}

type TextKey = string

const (
	Welcome         TextKey = "welcome"
	Help            TextKey = "help"
	Hello           TextKey = "hello"
	ChooseLanguage  TextKey = "choose_language"
	LanguageChanged TextKey = "language_changed"
	LanguageName    TextKey = "language_name"
	Unknown         TextKey = "unknown"
	Stats           TextKey = "stats"
	AdminOnly       TextKey = "admin_only"
	Retry           TextKey = "retry"
)

var MapText = map[TextKey]Language{
	Welcome: {
		UZ: "👋 Xush kelibsiz! Tilni tanlang yoki /help buyrug'ini yuboring.",
		RU: "👋 Добро пожаловать! Выберите язык или отправьте /help.",
		EN: "👋 Welcome! Pick a language or send /help.",
	},
	Help: {
		UZ: `Buyruqlar:
/start - boshlash
/lang - tilni o'zgartirish
/help - yordam
/stats - statistika (faqat adminlar uchun)`,
		RU: `Команды:
/start - начать
/lang - сменить язык
/help - помощь
/stats - статистика (только для админов)`,
		EN: `Commands:
/start - start over
/lang - change language
/help - this help
/stats - dispatch stats (admins only)`,
	},
	Hello: {
		UZ: "Salom, %s!",
		RU: "Привет, %s!",
		EN: "Hello, %s!",
	},
	ChooseLanguage: {
		UZ: "🌍 Tilni tanlang:",
		RU: "🌍 Выберите язык:",
		EN: "🌍 Choose a language:",
	},
	LanguageChanged: {
		UZ: "✅ Til o'zgartirildi",
		RU: "✅ Язык изменён",
		EN: "✅ Language changed",
	},
	LanguageName: {
		UZ: "🇺🇿 O'zbekcha",
		RU: "🇷🇺 Русский",
		EN: "🇬🇧 English",
	},
	Unknown: {
		UZ: "🤷 Noma'lum buyruq. /help ni yuboring.",
		RU: "🤷 Неизвестная команда. Отправьте /help.",
		EN: "🤷 Unknown command. Send /help.",
	},
	Stats: {
		UZ: "📊 Yangilanishlar: %d\nXatolar: %d",
		RU: "📊 Обновлений: %d\nОшибок: %d",
		EN: "📊 Updates: %d\nFailures: %d",
	},
	AdminOnly: {
		UZ: "⛔️ Bu buyruq faqat adminlar uchun.",
		RU: "⛔️ Эта команда только для админов.",
		EN: "⛔️ This command is for admins only.",
	},
	Retry: {
		UZ: "Xatolik, keyinroq urinib ko'ring",
		RU: "Ошибка, попробуйте позже",
		EN: "Something went wrong, please try again later",
	},
}

func Get(lang Lang, key TextKey) string {
	return MapText[key].By(lang)
}
