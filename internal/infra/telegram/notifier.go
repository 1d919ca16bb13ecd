package telegram

import (
	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Notifier delivers notifications to the single configured chat.
type Notifier struct {
	client domainTelegram.Client
	chatID int64
	logger *logrus.Entry
}

func NewNotifier(client domainTelegram.Client, chatID int64, logger *logrus.Entry) *Notifier {
	return &Notifier{client: client, chatID: chatID, logger: logger}
}

// ChatID returns the destination chat.
func (n *Notifier) ChatID() int64 { return n.chatID }

// Send delivers text once. Failures are returned as *homework.DeliveryError
// and never retried here.
func (n *Notifier) Send(text string) error {
	logCtx := n.logger.WithField("chat_id", n.chatID)
	if err := n.client.SendMessage(n.chatID, text, nil); err != nil {
		logCtx.WithError(err).Error("Couldn't send a message in telegram")
		return &homework.DeliveryError{Err: err}
	}
	logCtx.WithField("message", text).Debug("Message sent")
	return nil
}
