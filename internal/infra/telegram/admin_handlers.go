package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"feedback_portal/internal/app"
	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summaryjob"
	idb "feedback_portal/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized = "Error: you are not allowed to run this command."
	jobsListLimit   = 20
)

type adminHandler func(c telebot.Context, log *logrus.Entry) error

// adminOnly wraps a handler with request logging and the admin check.
func adminOnly(command string, adminTelegramID int64, baseLogger *logrus.Entry, next adminHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   command,
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}
		return next(c, handlerLogger)
	}
}

// RegisterAdminHandlers registers the staff moderation and summary commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	moderation := map[string]func(context.Context, int64, int64) (*feedback.Feedback, error){
		"/approve": adminService.ApproveFeedback,
		"/retract": adminService.RetractFeedback,
		"/delete":  adminService.DeleteFeedback,
	}
	for command, action := range moderation {
		b.Handle(command, adminOnly(command, adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
			args := c.Args()
			if len(args) != 1 {
				return c.Send(fmt.Sprintf("Usage: %s <feedback_id>", command))
			}
			feedbackID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return c.Send("Error: feedback ID must be a number.")
			}
			log = log.WithField("feedback_id", feedbackID)

			f, err := action(ctx, c.Sender().ID, feedbackID)
			if err != nil {
				return c.Send(moderationErrorText(log, err, feedbackID))
			}
			log.WithField("status", f.Status).Info("Moderation action applied")
			key := f.SummaryKey()
			return c.Send(fmt.Sprintf("Feedback #%d: %s. Summary for %s %q queued for regeneration.", f.ID, actionVerb(command), key.Kind, key.Target))
		}))
	}

	b.Handle("/summary", adminOnly("/summary", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		if len(args) != 2 {
			return c.Send("Usage: /summary <teacher|category> <target>")
		}
		kind := summaryjob.Kind(strings.ToLower(args[0]))
		if !kind.Valid() {
			return c.Send("Error: kind must be 'teacher' or 'category'.")
		}

		snap, found, err := adminService.GetSnapshot(ctx, c.Sender().ID, kind, args[1])
		if err != nil {
			log.WithError(err).Error("Failed to load summary")
			return c.Send("Could not load the summary, please try again later.")
		}
		if !found {
			return c.Send(fmt.Sprintf("No summary for %s %q yet. It will appear after the next worker run.", kind, args[1]))
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Summary for %s %q (updated %s)\n\nPositive:\n", kind, snap.Target, snap.UpdatedAt.Format("2006-01-02 15:04")))
		writeBullets(&sb, snap.Positive)
		sb.WriteString("\nActionable:\n")
		writeBullets(&sb, snap.Actionable)
		return c.Send(sb.String())
	}))

	b.Handle("/jobs", adminOnly("/jobs", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		if len(args) == 0 {
			counts, err := adminService.JobCounts(ctx, c.Sender().ID)
			if err != nil {
				log.WithError(err).Error("Failed to count jobs")
				return c.Send("Could not load job counts.")
			}
			return c.Send(fmt.Sprintf("Summary jobs: %d pending, %d processing, %d complete, %d failed.",
				counts[summaryjob.StatusPending], counts[summaryjob.StatusProcessing],
				counts[summaryjob.StatusComplete], counts[summaryjob.StatusFailed]))
		}

		status := summaryjob.Status(strings.ToLower(args[0]))
		jobs, err := adminService.ListJobs(ctx, c.Sender().ID, status, jobsListLimit)
		if err != nil {
			log.WithError(err).Error("Failed to list jobs")
			return c.Send("Could not load jobs.")
		}
		if len(jobs) == 0 {
			return c.Send(fmt.Sprintf("No %s jobs.", status))
		}
		var sb strings.Builder
		for _, j := range jobs {
			sb.WriteString(fmt.Sprintf("#%d %s %q (%s)\n", j.ID, j.Kind, j.Target, j.UpdatedAt.Format("01-02 15:04")))
		}
		return c.Send(sb.String())
	}))

	b.Handle("/enqueue", adminOnly("/enqueue", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		if len(args) != 2 {
			return c.Send("Usage: /enqueue <teacher|category> <target>")
		}
		jobID, err := adminService.EnqueueManual(ctx, c.Sender().ID, summaryjob.Kind(strings.ToLower(args[0])), args[1])
		if err != nil {
			if errors.Is(err, app.ErrInvalidJob) {
				return c.Send("Error: kind must be 'teacher' or 'category' and target must not be empty.")
			}
			log.WithError(err).Error("Failed to enqueue job")
			return c.Send("Could not enqueue the job.")
		}
		return c.Send(fmt.Sprintf("Job #%d queued.", jobID))
	}))

	b.Handle("/triage", adminOnly("/triage", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		apply := len(c.Args()) == 1 && c.Args()[0] == "apply"
		decisions, err := adminService.Triage(ctx, c.Sender().ID, apply)
		if err != nil {
			log.WithError(err).Error("Triage failed")
			return c.Send(fmt.Sprintf("Triage failed: %s", err.Error()))
		}
		if len(decisions) == 0 {
			return c.Send("No escalated feedback.")
		}
		var sb strings.Builder
		for _, d := range decisions {
			verdict := "keep escalated"
			if d.Approve {
				verdict = "approve"
			}
			if d.Applied {
				verdict = "approved"
			}
			sb.WriteString(fmt.Sprintf("#%d (%.2f): %s\n", d.Feedback.ID, d.Feedback.ToxicityScore, verdict))
		}
		return c.Send(sb.String())
	}))

	b.Handle("/worker", adminOnly("/worker", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		if len(c.Args()) == 1 && c.Args()[0] == "restart" {
			started, err := adminService.RestartWorker(ctx, c.Sender().ID)
			if err != nil {
				return c.Send(msgUnauthorized)
			}
			log.WithField("started", started).Info("Worker restart requested")
			if !started {
				return c.Send("Worker could not be restarted, it is still shutting down.")
			}
			return c.Send("Worker restarted.")
		}
		state, err := adminService.WorkerState(c.Sender().ID)
		if err != nil {
			return c.Send(msgUnauthorized)
		}
		return c.Send(fmt.Sprintf("Worker is %s.", state))
	}))

	b.Handle("/digest", adminOnly("/digest", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		d, err := adminService.LatestDigest(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, idb.ErrDigestNotFound) {
				return c.Send("No monthly digest has been generated yet.")
			}
			log.WithError(err).Error("Failed to load digest")
			return c.Send("Could not load the digest.")
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Digest %s (%d items)\n\nPositive:\n", d.MonthKey, d.FeedbackCount))
		writeBullets(&sb, d.Positive)
		sb.WriteString("\nActionable:\n")
		writeBullets(&sb, d.Actionable)
		return c.Send(sb.String())
	}))

	registerTeacherHandlers(ctx, b, adminService, adminTelegramID, baseLogger)
}

func registerTeacherHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/add_teacher", adminOnly("/add_teacher", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		// Expected format: /add_teacher <FirstName> [LastName] [Subject]
		args := c.Args()
		if len(args) < 1 || len(args) > 3 {
			return c.Send("Usage: /add_teacher <first name> [last name] [subject]")
		}
		var lastName, subject string
		if len(args) > 1 {
			lastName = args[1]
		}
		if len(args) > 2 {
			subject = args[2]
		}

		t, err := adminService.AddTeacher(ctx, c.Sender().ID, args[0], lastName, subject)
		if err != nil {
			log.WithError(err).Error("Failed to add teacher")
			return c.Send(fmt.Sprintf("Could not add teacher: %s", err.Error()))
		}
		log.WithField("teacher_id", t.ID).Info("Teacher added successfully")
		return c.Send(fmt.Sprintf("Teacher %s added with ID %d.", t.DisplayName(), t.ID))
	}))

	b.Handle("/remove_teacher", adminOnly("/remove_teacher", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /remove_teacher <teacher_id>")
		}
		teacherID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: teacher ID must be a number.")
		}

		t, err := adminService.RemoveTeacher(ctx, c.Sender().ID, teacherID)
		switch {
		case err == nil:
			log.WithField("teacher_id", t.ID).Info("Teacher deactivated")
			return c.Send(fmt.Sprintf("Teacher %s deactivated.", t.DisplayName()))
		case errors.Is(err, idb.ErrTeacherNotFound):
			return c.Send(fmt.Sprintf("Teacher %d not found.", teacherID))
		case errors.Is(err, app.ErrTeacherAlreadyInactive):
			return c.Send(fmt.Sprintf("Teacher %s is already inactive.", t.DisplayName()))
		default:
			log.WithError(err).Error("Failed to remove teacher")
			return c.Send(fmt.Sprintf("Could not remove teacher: %s", err.Error()))
		}
	}))

	b.Handle("/list_teachers", adminOnly("/list_teachers", adminTelegramID, baseLogger, func(c telebot.Context, log *logrus.Entry) error {
		includeInactive := len(c.Args()) == 1 && strings.ToLower(c.Args()[0]) == "all"
		teachers, err := adminService.ListTeachers(ctx, c.Sender().ID, includeInactive)
		if err != nil {
			log.WithError(err).Error("Failed to list teachers")
			return c.Send("Could not load teachers.")
		}
		if len(teachers) == 0 {
			return c.Send("No teachers found.")
		}
		var sb strings.Builder
		for _, t := range teachers {
			status := "active"
			if !t.IsActive {
				status = "inactive"
			}
			sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", t.ID, t.DisplayName(), status))
		}
		return c.Send(sb.String())
	}))
}

func moderationErrorText(log *logrus.Entry, err error, feedbackID int64) string {
	logWithError := log.WithError(err)
	switch {
	case errors.Is(err, app.ErrAdminNotAuthorized):
		logWithError.Warn("Admin not authorized (service level)")
		return msgUnauthorized
	case errors.Is(err, idb.ErrFeedbackNotFound):
		logWithError.Warn("Feedback not found")
		return fmt.Sprintf("Feedback #%d not found.", feedbackID)
	case errors.Is(err, app.ErrAlreadyInStatus):
		return fmt.Sprintf("Feedback #%d already has that status.", feedbackID)
	default:
		logWithError.Error("Moderation action failed")
		return fmt.Sprintf("Could not update feedback #%d: %s", feedbackID, err.Error())
	}
}

func actionVerb(command string) string {
	switch command {
	case "/approve":
		return "approved"
	case "/retract":
		return "retracted"
	default:
		return "deleted"
	}
}

func writeBullets(sb *strings.Builder, bullets []string) {
	for _, b := range bullets {
		sb.WriteString("- ")
		sb.WriteString(b)
		sb.WriteString("\n")
	}
}
