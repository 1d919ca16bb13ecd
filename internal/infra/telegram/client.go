// internal/infra/telegram/client.go
package telegram

import (
	"net/http"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// NewSendOnlyBot builds a bot without a poller: updates are never consumed.
// apiURL may be empty to use the public Bot API. No request is made here, so
// an unreachable API at startup surfaces later as a delivery failure.
func NewSendOnlyBot(token, apiURL string, httpClient *http.Client, onError func(error, telebot.Context)) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   token,
		Client:  httpClient,
		OnError: onError,
		Offline: true,
	})
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(telebot.ChatID(chatID), text, options)
	return err
}
