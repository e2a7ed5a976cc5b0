// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"feedback_portal/internal/domain/feedback"
	domaintg "feedback_portal/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

var _ domaintg.Client = (*TelebotAdapter)(nil)

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, text, options)
	return err
}

const (
	callbackApprove = "esc_approve"
	callbackDelete  = "esc_delete"
)

// EscalationAlerter sends escalated submissions to the admin chat with
// approve and delete buttons.
type EscalationAlerter struct {
	client  domaintg.Client
	adminID int64
}

func NewEscalationAlerter(client domaintg.Client, adminID int64) *EscalationAlerter {
	return &EscalationAlerter{client: client, adminID: adminID}
}

func (a *EscalationAlerter) NotifyEscalation(_ context.Context, f *feedback.Feedback) error {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Approve", callbackApprove, fmt.Sprint(f.ID)),
		markup.Data("Delete", callbackDelete, fmt.Sprint(f.ID)),
	))

	text := fmt.Sprintf("Feedback #%d was held for review (category: %s, toxicity %.2f):\n\n%s",
		f.ID, f.Category, f.ToxicityScore, f.Text)
	if err := a.client.SendMessage(a.adminID, text, &telebot.SendOptions{ReplyMarkup: markup}); err != nil {
		return fmt.Errorf("failed to send escalation alert for feedback %d: %w", f.ID, err)
	}
	return nil
}
