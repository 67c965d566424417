package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/metadata"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

var (
	version    = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile    string
	dryRun     bool
	verbose    bool
	force      bool
	animeMode  bool
	deepClean  bool
	titleCase  bool
	seriesName string
	formatName string
	noHistory  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jellyrename [path]",
		Short: "Rename TV and anime episodes for Jellyfin and Plex",
		Long: `jellyrename renames episode files in place so media servers can match them:
"Breaking.Bad.S01E01.Pilot.720p.WEB-DL.x264-GROUP.mkv" becomes
"Breaking Bad - S01E01 - Pilot.mkv". Subtitles and other sidecar files
are renamed along with their video.

The series name comes from the folder ("Breaking Bad (2008)/Season 1")
unless --series is given.

Examples:
  jellyrename --dry-run .
  jellyrename --series "Doctor Who (2005)" --dry-run /path/to/shows
  jellyrename --format "Show (Year) - SxxExx - Title" --dry-run .
  jellyrename --anime --dry-run /path/to/anime/show
  jellyrename --anime --format "Show - SxxExx" --dry-run .

Supported episode patterns:
  Standard TV shows:  S01E01, S1E1, 1x01, 01x01, E01, E001
  Anime/fansub:       [Group] Show - 01 [Quality], Show - 01 [Metadata]`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runRename,
	}

	// Add custom help function to show ASCII header
	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "jellyrename" {
			printHeader(version)
		}
		originalHelpFunc(cmd, args)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/jellyrename/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed processing information")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be renamed without making changes")

	addRenameFlags(rootCmd)

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// addRenameFlags registers the flags shared by rename and watch.
func addRenameFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files (use with caution)")
	cmd.Flags().BoolVar(&animeMode, "anime", false, "enable anime/fansub mode (prioritizes anime numbering)")
	cmd.Flags().BoolVar(&deepClean, "deep-clean", false, "clean internal MKV/MP4 metadata after renaming")
	cmd.Flags().BoolVar(&titleCase, "title-case", false, "capitalize episode titles")
	cmd.Flags().StringVar(&seriesName, "series", "", "series name (auto-detected if not provided)")
	cmd.Flags().StringVar(&formatName, "format", "", fmt.Sprintf("output format (default: %q)", naming.DefaultFormat))
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record renames for undo")
}

// runOptions is the merged view of config file and flags.
type runOptions struct {
	format    naming.OutputFormat
	anime     bool
	deepClean bool
	force     bool
	titleCase bool
	history   bool
}

// resolveOptions lets explicitly set flags win over the config file.
func resolveOptions(cmd *cobra.Command, cfg *config.Config) (runOptions, error) {
	opts := runOptions{
		format:    cfg.OutputFormat(),
		anime:     cfg.Options.Anime,
		deepClean: cfg.Options.DeepClean,
		force:     cfg.Options.Force,
		titleCase: cfg.Options.TitleCase,
		history:   cfg.History.Enabled,
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		f, err := naming.ParseOutputFormat(formatName)
		if err != nil {
			return opts, fmt.Errorf("--format: %w (valid: %v)", err, naming.AllFormats())
		}
		opts.format = f
	}
	if flags.Changed("anime") {
		opts.anime = animeMode
	}
	if flags.Changed("deep-clean") {
		opts.deepClean = deepClean
	}
	if flags.Changed("force") {
		opts.force = force
	}
	if flags.Changed("title-case") {
		opts.titleCase = titleCase
	}
	if noHistory {
		opts.history = false
	}

	opts.format = renamer.EffectiveFormat(opts.format, opts.anime)
	return opts, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger opens the file logger, mirrored to stderr when console is set.
// Logging problems never stop a run.
func newLogger(cfg *config.Config, console bool) *logging.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.File = cfg.Logging.File
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxBackups = cfg.Logging.MaxBackups
	logCfg.Console = console
	if verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		ui.WarningMsg("Logging disabled: %v", err)
		return logging.Nop()
	}
	return logger
}

func openHistory(cfg *config.Config) (*history.DB, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	db, err := history.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// buildRenamer wires config, flags and collaborators into a Renamer. The
// returned cleanup closes whatever was opened.
func buildRenamer(cfg *config.Config, opts runOptions, logger *logging.Logger, extra ...renamer.Option) (*renamer.Renamer, *history.DB, func(), error) {
	policy, err := cfg.Permissions.Policy()
	if err != nil {
		return nil, nil, nil, err
	}

	options := []renamer.Option{
		renamer.WithDryRun(dryRun),
		renamer.WithForce(opts.force),
		renamer.WithAnimeMode(opts.anime),
		renamer.WithDeepClean(opts.deepClean),
		renamer.WithTitleCase(opts.titleCase),
		renamer.WithFormat(opts.format),
		renamer.WithSeriesName(seriesName),
		renamer.WithPermissions(policy),
		renamer.WithLogger(logger),
	}
	if verbose {
		options = append(options, renamer.WithVerbose(ui.VerboseMsg))
	}
	if opts.deepClean {
		options = append(options, renamer.WithCleaner(metadata.NewCleaner(metadata.ExecRunner{}, logger)))
	}

	var db *history.DB
	if opts.history && !dryRun {
		db, err = openHistory(cfg)
		if err != nil {
			ui.WarningMsg("Undo history disabled: %v", err)
		} else {
			options = append(options, renamer.WithHistory(db))
		}
	}

	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	return renamer.New(append(options, extra...)...), db, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRename(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	basePath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(basePath); err != nil || !info.IsDir() {
		ui.ErrorMsg("Error: Directory %q does not exist!", path)
		return fmt.Errorf("directory %q does not exist", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, false)
	defer logger.Close()

	r, _, cleanup, err := buildRenamer(cfg, opts, logger, renamer.WithOnResult(printResult))
	if err != nil {
		return err
	}
	defer cleanup()

	printRunHeader(basePath, opts)

	ctx, cancel := signalContext()
	defer cancel()

	ui.InfoMsg("Processing episode files...")
	sess, err := r.ProcessDirectory(ctx, basePath)
	if err != nil {
		return err
	}

	return printSummary(basePath, sess)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			printHeader(version)
		},
	}
}
