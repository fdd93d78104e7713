package tgrouter

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeBot records what handlers send instead of calling Telegram.
type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fail     bool
}

var errSendFailed = errors.New("send failed")

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail {
		return tgbotapi.Message{}, errSendFailed
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail {
		return nil, errSendFailed
	}
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) Sent() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *fakeBot) Requests() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]tgbotapi.Chattable(nil), b.requests...)
}

func textUpdate(text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: 100},
			From:      &tgbotapi.User{ID: 200},
		},
	}
}

func commandUpdate(text string) *tgbotapi.Update {
	update := textUpdate(text)
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	return update
}

func callbackUpdate(data string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: &tgbotapi.User{ID: 200},
			Message: &tgbotapi.Message{
				MessageID: 11,
				Chat:      &tgbotapi.Chat{ID: 100},
			},
		},
	}
}
