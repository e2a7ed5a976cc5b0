// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			return c.Send("Hello, " + c.Sender().FirstName + "! The feedback portal moderation bot is ready. Use /help for the command list.")
		}
		logCtx.Info("User is unknown")
		return c.Send("Hello! This bot is for feedback portal staff only.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}

		var helpText strings.Builder
		helpText.WriteString("Moderation:\n")
		helpText.WriteString("/approve <id> - approve or re-approve feedback\n")
		helpText.WriteString("/retract <id> - remove feedback from summaries\n")
		helpText.WriteString("/delete <id> - delete feedback\n")
		helpText.WriteString("/triage [apply] - review escalated feedback\n\n")
		helpText.WriteString("Summaries:\n")
		helpText.WriteString("/summary <teacher|category> <target> - show the latest summary\n")
		helpText.WriteString("/enqueue <teacher|category> <target> - queue a regeneration\n")
		helpText.WriteString("/jobs [pending|processing|complete|failed] - queue status\n")
		helpText.WriteString("/worker [restart] - worker state\n")
		helpText.WriteString("/digest - latest monthly digest\n\n")
		helpText.WriteString("Teachers:\n")
		helpText.WriteString("/add_teacher <first> [last] [subject]\n")
		helpText.WriteString("/remove_teacher <id>\n")
		helpText.WriteString("/list_teachers [all]")
		return c.Send(helpText.String())
	})
}
