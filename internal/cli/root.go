// Package cli provides the command-line interface for igfetch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ycchou/igfetch/internal/adapter/instagram"
	"github.com/ycchou/igfetch/internal/adapter/sqlite"
	"github.com/ycchou/igfetch/internal/config"
	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/downloader"
	"github.com/ycchou/igfetch/internal/urlfile"
)

// Version is set at build time.
var Version = "0.1.0"

const (
	exitOK        = 0
	exitFatal     = 1
	exitInterrupt = 130
)

var (
	configPath     string
	postURL        string
	urlFilePath    string
	outputDir      string
	maxPosts       int
	includeStories bool
	includeReels   bool
	workers        int
	noResume       bool
	logFile        string
	historyDB      string
	verbose        bool

	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "igfetch [username]",
	Short: "Download media from Instagram accounts and posts",
	Long: `igfetch downloads media from Instagram: a full account (posts, and
optionally stories and reels), a single post URL, or a batch of URLs from a
YAML file. Interrupted runs resume from a progress ledger.`,
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	modes := 0
	if len(args) == 1 {
		modes++
	}
	if postURL != "" {
		modes++
	}
	if urlFilePath != "" {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("specify exactly one of: a username, --url, or --url-file")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := instagram.New(log)
	d := downloader.New(source, downloader.Options{
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Resume:    cfg.Resume,
	}, log)

	switch {
	case len(args) == 1:
		stats, err := d.DownloadUserMedia(ctx, args[0], downloader.TargetOptions{
			MaxPosts:       maxPosts,
			IncludeStories: includeStories,
			IncludeReels:   includeReels,
		})
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), stats)
		recordHistory(ctx, stats, "target", nil)

	case postURL != "":
		stats, err := d.DownloadFromURL(ctx, postURL)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), stats)
		recordHistory(ctx, stats, "single", nil)

	default:
		urls, err := urlfile.Load(urlFilePath, log)
		if err != nil {
			return err
		}
		stats, failures, err := d.DownloadBatch(ctx, urls)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), stats)
		printFailures(cmd.OutOrStdout(), failures)
		recordHistory(ctx, stats, "batch", failures)
	}

	return nil
}

// recordHistory stores the finished run in the history database. History is
// best effort: a storage failure is logged, never fatal.
func recordHistory(ctx context.Context, stats *domain.RunStats, mode string, failures []downloader.FailureRecord) {
	store, err := sqlite.Open(cfg.HistoryDB)
	if err != nil {
		log.Warn("cannot open history database", "path", cfg.HistoryDB, "error", err)
		return
	}
	defer store.Close()

	rec, err := store.RecordRun(ctx, stats, mode)
	if err != nil {
		log.Warn("cannot record run history", "error", err)
		return
	}
	if len(failures) == 0 {
		return
	}

	urls := make([]string, len(failures))
	reasons := make([]string, len(failures))
	for i, f := range failures {
		urls[i] = f.URL
		reasons[i] = f.Error
	}
	if err := store.RecordFailures(ctx, rec.ID, urls, reasons); err != nil {
		log.Warn("cannot record run failures", "error", err)
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "interrupted")
		return exitInterrupt
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitFatal
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "history database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVar(&postURL, "url", "", "download a single post URL")
	rootCmd.Flags().StringVar(&urlFilePath, "url-file", "", "download every URL from a YAML file")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory")
	rootCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "limit the number of posts (0 = all)")
	rootCmd.Flags().BoolVar(&includeStories, "include-stories", false, "also download current stories")
	rootCmd.Flags().BoolVar(&includeReels, "include-reels", false, "download reels into their own directory")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent downloads (1-8)")
	rootCmd.Flags().BoolVar(&noResume, "no-resume", false, "ignore the progress ledger")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if outputDir != "" {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("workers") {
			cfg.SetWorkers(workers)
		}
		if noResume {
			cfg.Resume = false
		}
		if logFile != "" {
			cfg.LogFile = logFile
		}
		if historyDB != "" {
			cfg.HistoryDB = historyDB
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		var cleanup func() error
		log, cleanup = config.SetupLogger(cfg.LogFile, level)
		cobra.OnFinalize(func() { cleanup() })
		return nil
	}

	rootCmd.AddCommand(historyCmd)
}
