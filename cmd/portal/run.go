package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"feedback_portal/internal/app"
	idb "feedback_portal/internal/infra/database"
	"feedback_portal/internal/infra/logger"
	"feedback_portal/internal/infra/metrics"
	"feedback_portal/internal/infra/scheduler"
	"feedback_portal/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

var skipMigrations bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the summary worker, maintenance scheduler and admin bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Component("main")
		log.WithFields(logrus.Fields{
			"environment": cfg.Environment,
			"admin_id":    cfg.AdminTelegramID,
			"ai_provider": cfg.AI.Provider,
		}).Info("Feedback portal starting...")

		// The bot comes first so escalation alerts can be wired into the services.
		var bot *telebot.Bot
		var notifier app.EscalationNotifier
		if cfg.TelegramToken != "" {
			botLog := logger.Component("telebot")
			bot, err = telebot.NewBot(telebot.Settings{
				Token:  cfg.TelegramToken,
				Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
				OnError: func(err error, c telebot.Context) {
					entry := botLog.WithError(err)
					if c != nil && c.Sender() != nil && c.Chat() != nil {
						entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
					}
					entry.Error("Telegram handler error")
				},
			})
			if err != nil {
				return fmt.Errorf("could not create Telegram bot: %w", err)
			}
			if cfg.EscalationAlertEnabled {
				notifier = telegram.NewEscalationAlerter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID)
			}
		}

		svc, err := buildServices(ctx, cfg, notifier)
		if err != nil {
			return err
		}
		defer svc.db.Close()

		if !skipMigrations {
			if err := idb.Migrate(svc.db, logger.Component("migrations")); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			if _, err := svc.seed.SeedIfEmpty(ctx); err != nil {
				log.WithError(err).Error("Demo data seeding failed")
			}
		}

		metricsServer := metrics.NewServer(cfg.MetricsAddr, logger.Component("metrics"))
		metricsServer.Start()

		maintenance := scheduler.NewMaintenanceScheduler(
			svc.processor,
			svc.digest,
			logger.Component("scheduler"),
			cfg.CronSpecStaleSweep,
			cfg.CronSpecMonthlyDigest,
			cfg.Worker.StaleJobAfter,
			cfg.AI.Timeout*2,
		)
		if err := maintenance.Start(); err != nil {
			return err
		}

		if cfg.Worker.Enabled {
			svc.worker.Start(ctx)
		} else {
			log.Warn("Summary worker disabled by configuration")
		}

		if bot != nil {
			telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, logger.Component("bot_commands"))
			telegram.RegisterAdminHandlers(ctx, bot, svc.admin, cfg.AdminTelegramID, logger.Component("admin_handlers"))
			telegram.RegisterEscalationHandlers(ctx, bot, svc.admin, logger.Component("escalation_handlers"))
			go bot.Start()
			log.Info("Telegram bot started")
		}

		log.Info("Application setup complete")
		<-ctx.Done()
		log.Info("Shutting down application...")

		if bot != nil {
			bot.Stop()
		}
		svc.worker.Stop()
		maintenance.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}

		log.Info("Application shut down gracefully")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on start")
}
