// Command runonce runs exactly one ingestion cycle and prints its report as JSON,
// for use under an external scheduler. The exit code is 0 for a succeeded or
// partial cycle and 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ainewsbot/archive"
	"ainewsbot/config"
	"ainewsbot/orchestrator"
	"ainewsbot/types"

	"github.com/spf13/cobra"
)

var timeout time.Duration

func main() {
	rootCmd := &cobra.Command{
		Use:   "runonce",
		Short: "Run one ingestion cycle and print its report",
		Long: `runonce fetches every enabled source once, commits the new and updated
articles to the configured store and prints the cycle report as JSON.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "upper bound for the whole command")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sources",
		Short: "Print the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return printJSON(cfg.Sources)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Print the most recently archived cycle from S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLatest(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func runCycle(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc, err := orchestrator.NewService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	report, runErr := svc.Coordinator.RunCycle(ctx)
	if err := svc.Close(); err != nil {
		log.Printf("⚠️ close: %v", err)
	}
	if report != nil {
		if err := printJSON(report); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("cycle failed: %w", runErr)
	}
	if report.Status == types.CycleFailed {
		return fmt.Errorf("cycle %s failed: every source failed", report.CycleID)
	}
	return nil
}

func printLatest(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	objects, err := archive.NewS3(ctx, cfg.S3)
	if err != nil {
		return err
	}
	arch := archive.New(objects, cfg.S3.Prefix)
	key, err := arch.Latest(ctx)
	if err != nil {
		return err
	}
	rec, err := arch.Load(ctx, key)
	if err != nil {
		return err
	}
	log.Printf("📥 %s (%d articles)", key, len(rec.Articles))
	return printJSON(rec.Report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
