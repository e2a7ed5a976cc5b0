package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"feedback_portal/internal/app"
	"feedback_portal/internal/domain/feedback"
	idb "feedback_portal/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterEscalationHandlers handles the buttons attached to escalation alerts.
func RegisterEscalationHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	handle := func(unique string, action func(context.Context, int64, int64) (*feedback.Feedback, error), done string) {
		b.Handle(&telebot.Btn{Unique: unique}, func(c telebot.Context) error {
			log := baseLogger.WithFields(logrus.Fields{"callback": unique, "sender_id": c.Sender().ID})

			feedbackID, err := strconv.ParseInt(c.Callback().Data, 10, 64)
			if err != nil {
				c.Bot().OnError(fmt.Errorf("invalid feedback id %q in %s callback: %w", c.Callback().Data, unique, err), c)
				return c.Respond(&telebot.CallbackResponse{Text: "Invalid feedback ID."})
			}

			if _, err := action(ctx, c.Sender().ID, feedbackID); err != nil {
				log.WithError(err).WithField("feedback_id", feedbackID).Warn("Escalation action failed")
				text := "Action failed."
				switch {
				case errors.Is(err, app.ErrAdminNotAuthorized):
					text = "Not allowed."
				case errors.Is(err, idb.ErrFeedbackNotFound):
					text = "Feedback no longer exists."
				case errors.Is(err, app.ErrAlreadyInStatus):
					text = "Already done."
				}
				return c.Respond(&telebot.CallbackResponse{Text: text})
			}

			log.WithField("feedback_id", feedbackID).Info("Escalation resolved")
			if err := c.Respond(&telebot.CallbackResponse{Text: done}); err != nil {
				return err
			}
			return c.Send(fmt.Sprintf("Feedback #%d %s.", feedbackID, done))
		})
	}

	handle(callbackApprove, adminService.ApproveFeedback, "approved")
	handle(callbackDelete, adminService.DeleteFeedback, "deleted")
}
