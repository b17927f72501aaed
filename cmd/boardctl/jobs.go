package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"task-board-api/internal/client"
	"task-board-api/internal/database"
	"task-board-api/internal/job"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
	"task-board-api/internal/router"
)

func scanDueDatesCmd(flags *globalFlags) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "scan-due-dates",
		Short: "Run one due-date rule scan",
		Long: `Run one due-date rule scan outside the server schedule.

Firings already recorded for the same rule, task and UTC day are skipped,
so running this next to the server does not fire a rule twice.

Examples:
  boardctl scan-due-dates
  boardctl scan-due-dates --at 2025-06-10T09:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed.UTC()
			}

			e, err := flags.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			rdb, err := database.NewRedis(ctx, e.cfg.Redis, e.logger)
			if err != nil {
				e.logger.Warn("redis unavailable, using database ledger only")
				rdb = nil
			}
			if rdb != nil {
				defer rdb.Close()
			}

			m := metrics.NewWithRegistry(prometheus.NewRegistry(), e.logger)
			var notifier client.NotificationClient = client.NewNoOpNotificationClient()
			if e.cfg.Notification.BaseURL != "" {
				notifier = client.NewNotificationClient(e.cfg.Notification.BaseURL, e.cfg.Notification.APIKey, e.cfg.Notification.Timeout, e.logger, m)
			}
			services := router.NewServices(router.Config{
				DB:            e.db,
				Logger:        e.logger,
				Metrics:       m,
				Notifier:      notifier,
				MaxChainDepth: e.cfg.Automation.MaxChainDepth,
			})

			ledger := job.NewFiringLedger(repository.NewDueDateFiringRepository(e.db), rdb, e.logger)
			result, err := services.DueDateScanner(ledger, m, e.logger).Scan(ctx, now)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "scan as of this RFC3339 instant (default now)")
	return cmd
}

func cleanupCmd(flags *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired temporary attachments and prune the due-date ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.open()
			if err != nil {
				return err
			}
			defer e.close()

			attachments := repository.NewAttachmentRepository(e.db)
			if dryRun {
				expired, err := attachments.FindExpiredTempAttachments(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d expired attachments would be deleted\n", len(expired))
				return nil
			}

			var s3Client client.S3ClientInterface = client.NewMockS3Client()
			if e.cfg.S3.Bucket != "" && e.cfg.S3.Region != "" {
				s3c, err := client.NewS3Client(&e.cfg.S3)
				if err != nil {
					return fmt.Errorf("s3 client: %w", err)
				}
				s3Client = s3c
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			cleanup := job.NewCleanupJob(attachments, repository.NewDueDateFiringRepository(e.db), s3Client, e.logger)
			return printJSON(cmd, cleanup.RunAt(ctx, time.Now().UTC()))
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count expired attachments")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
