package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hnbriefs/internal/app"
	"hnbriefs/internal/config"
	"hnbriefs/internal/domain"
	"hnbriefs/internal/infrastructure/analyzer"
	"hnbriefs/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hnbriefs",
		Short:         "HackerNews ingestion and analysis pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand(),
		newWatchCommand(),
		newStatusCommand(),
		newCacheCommand(),
		newReportCommand(),
	)
	return root
}

// buildApp loads config, builds the application, and hands both to the
// command body. Close is the caller's responsibility.
func buildApp() (*app.Application, config.Config, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return application, cfg, nil
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			out, err := application.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if out.NoNewWork {
				fmt.Println("no new work")
				return nil
			}
			fmt.Printf("run %s: processed=%d skipped=%d errors=%d pruned=%d\n",
				out.RunID, out.Processed, out.Skipped, out.Errors, out.Pruned)
			for _, id := range out.BriefIDs {
				fmt.Printf("  brief %s\n", id)
			}
			return nil
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run pipeline cycles on an interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cfg, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("watching every %s (ctrl-c to stop)\n", cfg.Watch.Interval)
			return application.Watch(ctx)
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show processing statistics and recent briefs",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Tracker().Stats()
			if err != nil {
				return err
			}
			fmt.Printf("last run:        %s\n", formatTime(stats.LastProcessedAt))
			fmt.Printf("total processed: %d\n", stats.TotalProcessed)
			fmt.Printf("total errors:    %d\n", stats.TotalErrors)
			fmt.Printf("total skipped:   %d\n", stats.TotalSkipped)
			fmt.Printf("last max id:     %d\n", stats.LastMaxItemID)
			fmt.Printf("last new count:  %d\n", stats.LastNewCount)

			recent, err := application.Index().Recent(10)
			if err != nil {
				return err
			}
			if len(recent) > 0 {
				fmt.Println("\nrecent briefs:")
				for _, meta := range recent {
					fmt.Printf("  %s  %s  [%s]\n", meta.CreatedAt.Format("2006-01-02 15:04"),
						meta.Title, strings.Join(meta.Tags, ", "))
				}
			}
			return nil
		},
	}
}

func newCacheCommand() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain local storage",
	}

	cache.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Summarize the raw item cache",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Cache().Stats()
			if err != nil {
				return err
			}
			fmt.Printf("items: %d  id range: %d..%d  bytes: %d\n",
				stats.Count, stats.MinID, stats.MaxID, stats.TotalBytes)
			return nil
		},
	})

	cache.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check every cached item decodes cleanly",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ids, err := application.Cache().CachedIDs()
			if err != nil {
				return err
			}
			bad := 0
			for _, id := range ids {
				if _, err := application.Cache().Load(id); err != nil {
					bad++
					fmt.Printf("item %d: %v\n", id, err)
				}
			}
			fmt.Printf("verified %d items, %d unreadable\n", len(ids), bad)
			if bad > 0 {
				return fmt.Errorf("%d cached items are unreadable", bad)
			}
			return nil
		},
	})

	cache.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the brief index from the stored brief files",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			metas, err := application.Briefs().Metadata()
			if err != nil {
				return err
			}
			for _, meta := range metas {
				if err := application.Index().Add(meta); err != nil {
					return fmt.Errorf("index %s: %w", meta.ID, err)
				}
			}
			fmt.Printf("reindexed %d briefs\n", len(metas))
			return nil
		},
	})

	return cache
}

func newReportCommand() *cobra.Command {
	var tags []string
	var offline bool

	report := &cobra.Command{
		Use:   "report",
		Short: "Render a markdown trend report over stored analyses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cfg, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			analyses, err := storedAnalyses(application)
			if err != nil {
				return err
			}
			analyses = analyzer.FilterByTags(analyses, tags)

			model := application.Model()
			if offline {
				model = nil
			}
			fmt.Println(analyzer.TrendReport(cmd.Context(), model, analyses, cfg.Trends, time.Now()))
			return nil
		},
	}
	report.Flags().StringSliceVar(&tags, "tags", nil, "only include analyses carrying one of these tags")
	report.Flags().BoolVar(&offline, "offline", false, "skip the model and render the local tag-frequency report")

	report.AddCommand(newReportExportCommand(), newReportImportCommand())
	return report
}

func newReportExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all stored analyses to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, _, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			analyses, err := storedAnalyses(application)
			if err != nil {
				return err
			}
			data, err := analyzer.ExportJSON(analyses)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}
			fmt.Printf("exported %d analyses to %s\n", len(analyses), args[0])
			return nil
		},
	}
}

func newReportImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Summarize analyses from an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := config.Load()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			analyses, err := analyzer.ImportJSON(data)
			if err != nil {
				return err
			}

			stats := analyzer.AnalysisStats(analyses, cfg.Trends)
			fmt.Printf("imported %d analyses\n", stats.Total)
			for _, tag := range stats.TopTags {
				fmt.Printf("  %s (%d)\n", tag, stats.TagCounts[tag])
			}
			return nil
		},
	}
}

// storedAnalyses collects the analyses embedded in persisted briefs.
func storedAnalyses(application *app.Application) ([]domain.AnalysisResult, error) {
	briefs, err := application.Briefs().AllBriefs()
	if err != nil {
		return nil, err
	}
	analyses := make([]domain.AnalysisResult, 0, len(briefs))
	for _, b := range briefs {
		analyses = append(analyses, b.Analysis)
	}
	return analyses, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
