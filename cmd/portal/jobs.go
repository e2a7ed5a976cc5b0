package main

import (
	"fmt"

	"feedback_portal/internal/domain/summaryjob"

	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <teacher|category> <target>",
	Short: "Queue a summary regeneration for one target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := buildServices(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer svc.db.Close()

		id, err := svc.queue.Enqueue(cmd.Context(), summaryjob.Kind(args[0]), args[1], nil)
		if err != nil {
			return err
		}
		job, err := svc.queue.Job(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued job %d for %s (%s)\n", job.ID, job.Key(), job.Status)
		return nil
	},
}

var recoverStaleCmd = &cobra.Command{
	Use:   "recover-stale",
	Short: "Return summary jobs stuck in processing to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := buildServices(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer svc.db.Close()

		n, err := svc.processor.RequeueStale(cmd.Context(), cfg.Worker.StaleJobAfter)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued %d stale jobs\n", n)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo teachers and feedback into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := buildServices(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer svc.db.Close()

		seeded, err := svc.seed.SeedIfEmpty(cmd.Context())
		if err != nil {
			return err
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "database already has teachers, nothing seeded")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "demo data seeded")
		return nil
	},
}
